// Package core provides the foundational domain types and interfaces used by
// VoxSurvey. It defines the core abstractions for:
//
//   - Surveys, Questions and Respondents (the scripted interview material)
//   - Sessions (stateful conversational containers, one per interview attempt)
//   - Phases and Outcomes (the conversation state machine vocabulary)
//   - Pluggable stores for sessions, survey definitions and durable responses
//
// The package intentionally keeps implementation concerns (dialogue logic,
// persistence backends, transports) out of scope, exposing small interfaces to
// enable custom backends without changing any calling code.
package core
