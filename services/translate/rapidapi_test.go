package translatesvc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aarth-Web/ss-backend/core"
	logsvc "github.com/Aarth-Web/ss-backend/services/logger"
)

func testLogger() core.Logger {
	return logsvc.NewStdLogger(log.New(io.Discard, "", 0))
}

func newTestService(apiKey, apiURL string, fallback ...bool) core.Translator {
	conf := &core.Config{}
	conf.Translate.APIKey = apiKey
	conf.Translate.APIHost = "deep-translate.test"
	conf.Translate.APIURL = apiURL
	if len(fallback) > 0 {
		conf.Notify.FallbackOnProviderError = fallback[0]
	}
	return NewRapidAPIService(conf, testLogger())
}

func TestRapidAPIService_passthrough(t *testing.T) {
	ctx := context.Background()

	t.Run("no API key", func(t *testing.T) {
		svc := newTestService("", "http://localhost")
		got, err := svc.Translate(ctx, "hello", "en", "hi")
		require.NoError(t, err)
		assert.Equal(t, "hello", got)
	})

	t.Run("same source and target", func(t *testing.T) {
		svc := newTestService("key", "http://localhost")
		got, err := svc.Translate(ctx, "hello", "en", "en")
		require.NoError(t, err)
		assert.Equal(t, "hello", got)
	})
}

func TestRapidAPIService_Translate(t *testing.T) {
	newServer := func(t *testing.T, translatedText string) *httptest.Server {
		t.Helper()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "key", r.Header.Get("x-rapidapi-key"))
			assert.Equal(t, "deep-translate.test", r.Header.Get("x-rapidapi-host"))

			var req translateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, translateRequest{Q: "hello", Source: "en", Target: "hi"}, req)

			fmt.Fprintf(w, `{"data":{"translations":{"translatedText":%s}}}`, translatedText)
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	t.Run("string shape", func(t *testing.T) {
		srv := newServer(t, `"नमस्ते"`)
		svc := newTestService("key", srv.URL)

		got, err := svc.Translate(context.Background(), "hello", "en", "hi")
		require.NoError(t, err)
		assert.Equal(t, "नमस्ते", got)
	})

	t.Run("array shape", func(t *testing.T) {
		srv := newServer(t, `["नमस्ते"]`)
		svc := newTestService("key", srv.URL)

		got, err := svc.Translate(context.Background(), "hello", "en", "hi")
		require.NoError(t, err)
		assert.Equal(t, "नमस्ते", got)
	})

	t.Run("API error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		t.Cleanup(srv.Close)
		svc := newTestService("key", srv.URL)

		_, err := svc.Translate(context.Background(), "hello", "en", "hi")
		assert.EqualError(t, err, "translate API returned status 403")
	})

	t.Run("empty translation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"data":{"translations":{"translatedText":""}}}`)
		}))
		t.Cleanup(srv.Close)
		svc := newTestService("key", srv.URL)

		_, err := svc.Translate(context.Background(), "hello", "en", "hi")
		assert.EqualError(t, err, "translate API returned an empty translation")
	})

	t.Run("provider error falls back to the original text when enabled", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)
		svc := newTestService("key", srv.URL, true)

		got, err := svc.Translate(context.Background(), "hello", "en", "hi")
		require.NoError(t, err)
		assert.Equal(t, "hello", got)
	})
}
