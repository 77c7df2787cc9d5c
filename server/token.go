package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenConfig holds the signing material for voice-room access tokens.
type TokenConfig struct {
	// Secret signs tokens with HMAC-SHA256. Required for the token route.
	Secret string
	// TTL bounds token validity. Defaults to one hour.
	TTL time.Duration
	// WSURL is the websocket endpoint handed back to browser clients.
	WSURL string
}

type tokenRequest struct {
	SessionID string `json:"session_id"`
	Identity  string `json:"identity"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	URL       string `json:"url"`
	Room      string `json:"room"`
	ExpiresAt int64  `json:"expires_at"`
}

// roomClaims grants a client join access to the room named after its session.
type roomClaims struct {
	jwt.RegisteredClaims
	Grants map[string]any `json:"grants"`
}

// handleToken mints a short-lived room token for a live session. Sessions
// that already reached a terminal phase get no token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if s.token.Secret == "" {
		writeError(w, http.StatusServiceUnavailable, "token minting is not configured")
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.sessions.Get(req.SessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if sess.GetPhase().Terminal() {
		writeError(w, http.StatusConflict, "session already finished")
		return
	}

	identity := req.Identity
	if identity == "" {
		identity = sess.RespondentName
	}

	ttl := s.token.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	expires := now.Add(ttl)

	room := "survey-" + sess.ID
	claims := roomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Grants: map[string]any{
			"room":     room,
			"roomJoin": true,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.token.Secret))
	if err != nil {
		s.logger.Error("token signing failed", "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not mint token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     signed,
		URL:       s.token.WSURL,
		Room:      room,
		ExpiresAt: expires.Unix(),
	})
}
