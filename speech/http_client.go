package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ClientOptions configure the HTTP speech clients.
type ClientOptions struct {
	// HTTPClient overrides the default client. Timeouts are generous because
	// CPU transcription of long answers is slow.
	HTTPClient *http.Client
	// MaxRetries bounds transient-error retries per call. Retries use
	// exponential backoff; a respondent waiting on the line caps how long we
	// can afford to keep trying.
	MaxRetries uint64
	// Voice names the synthesis voice (TTS only).
	Voice string
}

// WhisperClient calls a Whisper-style transcription service over HTTP.
type WhisperClient struct {
	baseURL string
	client  *http.Client
	retries uint64
}

// NewWhisperClient constructs a transcription client for the given base URL.
func NewWhisperClient(baseURL string, optFns ...func(o *ClientOptions)) *WhisperClient {
	opts := ClientOptions{
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		MaxRetries: 2,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &WhisperClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  opts.HTTPClient,
		retries: opts.MaxRetries,
	}
}

// Transcribe posts the audio to the service and returns the transcribed text.
// Silence comes back as an empty string with a nil error.
func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var text string

	op := func() error {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		part, err := w.CreateFormFile("audio", "audio.wav")
		if err != nil {
			return backoff.Permanent(err)
		}
		if _, err := part.Write(audio); err != nil {
			return backoff.Permanent(err)
		}
		if err := w.Close(); err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &body)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", w.FormDataContentType())

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("transcription service returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("transcription service returned %d", resp.StatusCode))
		}

		var out struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode transcription response: %w", err))
		}
		text = strings.TrimSpace(out.Text)
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return text, nil
}

// EdgeTTSClient calls an Edge-TTS-style synthesis service over HTTP.
type EdgeTTSClient struct {
	baseURL string
	client  *http.Client
	retries uint64
	voice   string
}

// NewEdgeTTSClient constructs a synthesis client for the given base URL.
func NewEdgeTTSClient(baseURL string, optFns ...func(o *ClientOptions)) *EdgeTTSClient {
	opts := ClientOptions{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		MaxRetries: 2,
		Voice:      "ur-PK-UzmaNeural",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &EdgeTTSClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  opts.HTTPClient,
		retries: opts.MaxRetries,
		voice:   opts.Voice,
	}
}

// Synthesize posts the utterance to the service and returns the audio bytes.
func (c *EdgeTTSClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	var audio []byte

	op := func() error {
		payload, err := json.Marshal(map[string]string{"text": text, "voice": c.voice})
		if err != nil {
			return backoff.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize/urdu", bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("synthesis service returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("synthesis service returned %d", resp.StatusCode))
		}

		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read synthesis response: %w", err)
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	return audio, nil
}

// Health pings the synthesis service, reporting reachability.
func (c *EdgeTTSClient) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
