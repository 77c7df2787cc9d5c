package speech

import "context"

// Recognizer transcribes respondent audio. An empty string with a nil error
// means silence or no recognizable speech; callers treat errors the same way
// after logging them.
type Recognizer interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer turns an agent utterance into audio for playback.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
