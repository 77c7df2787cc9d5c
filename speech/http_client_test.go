package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ Recognizer  = (*WhisperClient)(nil)
	_ Synthesizer = (*EdgeTTSClient)(nil)
)

func TestWhisperClient_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transcribe", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		_, _, err := r.FormFile("audio")
		require.NoError(t, err)
		w.Write([]byte(`{"text": "  جی ہاں  "}`))
	}))
	defer srv.Close()

	c := NewWhisperClient(srv.URL)
	text, err := c.Transcribe(context.Background(), []byte("fake-wav"))

	require.NoError(t, err)
	assert.Equal(t, "جی ہاں", text)
}

func TestWhisperClient_SilenceIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"text": ""}`))
	}))
	defer srv.Close()

	c := NewWhisperClient(srv.URL)
	text, err := c.Transcribe(context.Background(), []byte("silence"))

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestWhisperClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"text": "دوبارہ"}`))
	}))
	defer srv.Close()

	c := NewWhisperClient(srv.URL)
	text, err := c.Transcribe(context.Background(), []byte("audio"))

	require.NoError(t, err)
	assert.Equal(t, "دوبارہ", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestWhisperClient_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewWhisperClient(srv.URL)
	_, err := c.Transcribe(context.Background(), []byte("audio"))

	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEdgeTTSClient_Synthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/synthesize/urdu", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	c := NewEdgeTTSClient(srv.URL, func(o *ClientOptions) { o.Voice = "ur-PK-AsadNeural" })
	audio, err := c.Synthesize(context.Background(), "السلام علیکم")

	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
}

func TestEdgeTTSClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewEdgeTTSClient(srv.URL)
	assert.True(t, c.Health(context.Background()))

	srv.Close()
	assert.False(t, c.Health(context.Background()))
}
