package model

import "context"

// Request captures one clarification exchange: standing instructions plus the
// respondent's off-script utterance.
type Request struct {
	// Instructions is the system prompt, typically describing the agent's
	// role and the current interview status.
	Instructions string `json:"instructions"`
	// Input is the respondent's utterance verbatim.
	Input string `json:"input"`
}

// Info contains metadata about a clarifier implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "local", etc.
}

// Clarifier is the minimal interface the transport layer needs for free-form
// clarification replies.
type Clarifier interface {
	Clarify(ctx context.Context, req Request) (string, error)

	// Info returns information about the clarifier implementation.
	Info() Info
}

// MockClarifier is a lightweight in-memory Clarifier useful for tests.
type MockClarifier struct {
	// Reply is returned for every request.
	Reply string
	// Err, when set, is returned instead of Reply.
	Err error
	// Requests records every request received, in order.
	Requests []Request
}

// Clarify implements Clarifier.
func (m *MockClarifier) Clarify(_ context.Context, req Request) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

// Info implements Clarifier.
func (m *MockClarifier) Info() Info {
	return Info{Name: "mock", Provider: "mock"}
}
