package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/voxsurvey/voxsurvey/core"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Cross-origin policy is enforced by the CORS layer and token auth; the
	// websocket handshake accepts any origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// voiceFrame is the JSON control frame exchanged on the voice socket. Binary
// frames carry audio: respondent audio inbound, synthesized speech outbound.
type voiceFrame struct {
	Type      string       `json:"type"` // "utterance", "text", "error", "bye"
	Text      string       `json:"text,omitempty"`
	Outcome   core.Outcome `json:"outcome,omitempty"`
	SessionID string       `json:"session_id,omitempty"`
}

// handleVoice runs the real-time voice loop for one session. The protocol is
// strictly alternating: the client sends one utterance (binary audio, or a
// "text" frame for text-mode clients), the server replies with an "utterance"
// frame plus optional synthesized audio. The transport layer, not the engine,
// detects respondent timeouts: a client-side no-input timer sends an empty
// text frame, which reaches the engine as an empty utterance.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "session_id", sess.ID, "error", err)
		return
	}
	defer conn.Close()

	log := s.logger
	log.Info("voice channel opened", "session_id", sess.ID)

	// A freshly created session greets as soon as the channel is up. The
	// turn lock covers the phase check so concurrent sockets for the same
	// session cannot both observe the greeting phase and double-greet.
	sess.BeginTurn()
	var greeting string
	if sess.GetPhase() == core.PhaseGreeting {
		greeting, err = s.engine.Start(r.Context(), sess)
		if err != nil {
			sess.EndTurn()
			_ = conn.WriteJSON(voiceFrame{Type: "error", Text: "session could not be started"})
			return
		}
	}
	sess.EndTurn()
	if greeting != "" && !s.speak(r, conn, sess, core.OutcomeContinue, greeting) {
		return
	}

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			log.Info("voice channel closed", "session_id", sess.ID, "error", err)
			return
		}

		var text string
		switch msgType {
		case websocket.BinaryMessage:
			text = s.transcribe(r, sess, payload)
		case websocket.TextMessage:
			var frame voiceFrame
			if err := json.Unmarshal(payload, &frame); err == nil && frame.Type == "text" {
				text = frame.Text
			}
		default:
			continue
		}

		sess.BeginTurn()
		outcome, utterance := s.engine.Advance(r.Context(), sess, text)
		sess.EndTurn()

		if !s.speak(r, conn, sess, outcome, utterance) {
			return
		}

		if outcome != core.OutcomeContinue {
			_ = conn.WriteJSON(voiceFrame{Type: "bye", Outcome: outcome, SessionID: sess.ID})
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(outcome)),
				time.Now().Add(time.Second))
			return
		}
	}
}

// transcribe runs the STT round trip. Failures and silence both surface as an
// empty utterance; the retry policy downstream handles them.
func (s *Server) transcribe(r *http.Request, sess *core.Session, audio []byte) string {
	if s.recognizer == nil {
		return ""
	}
	started := time.Now()
	text, err := s.recognizer.Transcribe(r.Context(), audio)
	if err != nil {
		s.logger.Warn("transcription failed", "session_id", sess.ID, "duration", time.Since(started).String(), "error", err)
		return ""
	}
	return text
}

// speak sends the utterance frame plus synthesized audio when a synthesizer
// is wired. Empty utterances (terminal no-ops) skip synthesis.
func (s *Server) speak(r *http.Request, conn *websocket.Conn, sess *core.Session, outcome core.Outcome, utterance string) bool {
	if err := conn.WriteJSON(voiceFrame{Type: "utterance", Text: utterance, Outcome: outcome, SessionID: sess.ID}); err != nil {
		return false
	}
	if s.synthesizer == nil || utterance == "" {
		return true
	}

	started := time.Now()
	audio, err := s.synthesizer.Synthesize(r.Context(), utterance)
	if err != nil {
		s.logger.Error("synthesis failed", "session_id", sess.ID, "duration", time.Since(started).String(), "error", err)
		return true // text frame already delivered, keep the call alive
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return false
	}
	return true
}
