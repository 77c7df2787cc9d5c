// Package speech defines the speech-to-text and text-to-speech collaborator
// contracts consumed by the transport layer, plus HTTP clients for the
// Whisper-style transcription and Edge-TTS-style synthesis sidecar services.
//
// The dialogue engine never touches these: all blocking speech work happens
// before and after each engine call. A failed or silent transcription reaches
// the engine as an empty utterance.
package speech
