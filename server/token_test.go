package server

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_TokenMinting(t *testing.T) {
	srv, _, _ := newTestServer(t)
	started := startInterview(t, srv)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/token",
		tokenRequest{SessionID: started.SessionID, Identity: "ahmed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out tokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "survey-"+started.SessionID, out.Room)
	assert.Greater(t, out.ExpiresAt, time.Now().Unix())

	parsed, err := jwt.ParseWithClaims(out.Token, &roomClaims{}, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(*roomClaims)
	assert.Equal(t, "ahmed", claims.Subject)
	assert.Equal(t, out.Room, claims.Grants["room"])
	assert.Equal(t, true, claims.Grants["roomJoin"])
}

func TestServer_TokenUnknownSession(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/token", tokenRequest{SessionID: "nope"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_TokenRefusesFinishedSession(t *testing.T) {
	srv, _, sessions := newTestServer(t)
	started := startInterview(t, srv)

	sess, err := sessions.Get(started.SessionID)
	require.NoError(t, err)
	sess.Abandon()

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/token", tokenRequest{SessionID: started.SessionID})

	assert.Equal(t, http.StatusConflict, rec.Code)
}
