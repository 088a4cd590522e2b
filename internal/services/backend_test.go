package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sitepanel/internal/config"
	"sitepanel/internal/metrics"
)

func newTestBackend(t *testing.T, h http.HandlerFunc) (*BackendClient, *metrics.Metrics) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	m := metrics.New()
	cfg := &config.Config{APIBase: ts.URL + "/api", HTTPTimeoutSeconds: 5}
	return NewBackendClient(cfg, ts.Client(), zap.NewNop(), m), m
}

func TestBackendClient_List(t *testing.T) {
	t.Parallel()
	client, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/sites", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"siteName":"Acme","safeName":"acme","url":"https://acme/","status":"up","createdAt":"2024-01-01"}]`)
	})

	sites, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "Acme", sites[0].SiteName)
	assert.Equal(t, "acme", sites[0].SafeName)
	assert.Equal(t, "https://acme/", sites[0].URL)
	assert.Equal(t, "up", sites[0].Status)
	assert.Equal(t, "2024-01-01", sites[0].CreatedAt)
}

func TestBackendClient_List_NullIsEmpty(t *testing.T) {
	t.Parallel()
	client, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `null`)
	})

	sites, err := client.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, sites)
	assert.Empty(t, sites)
}

func TestBackendClient_List_Failures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"html body", http.StatusOK, "<html>oops</html>"},
		{"object instead of array", http.StatusOK, `{"message":"nope"}`},
		{"server error", http.StatusInternalServerError, `{"message":"boom"}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, m := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.List(context.Background())
			require.Error(t, err)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCounter("list", "error")))
		})
	}
}

func TestBackendClient_Create(t *testing.T) {
	t.Parallel()
	client, m := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/create-site", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"siteName": "Acme"}, body)

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"message":"Site créé"}`)
	})

	msg, err := client.Create(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Site créé", msg)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCounter("create", "ok")))
}

func TestBackendClient_Create_BackendError(t *testing.T) {
	t.Parallel()
	client, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message":"Ce site existe déjà"}`)
	})

	_, err := client.Create(context.Background(), "Acme")
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusConflict, be.StatusCode)
	assert.Equal(t, "Ce site existe déjà", be.Message)
}

func TestBackendClient_Create_UndecodableBody(t *testing.T) {
	t.Parallel()
	client, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "Bad Gateway")
	})

	_, err := client.Create(context.Background(), "Acme")
	require.ErrorIs(t, err, ErrBadPayload)
	var be *BackendError
	assert.False(t, errors.As(err, &be))
}

func TestBackendClient_Rename(t *testing.T) {
	t.Parallel()
	client, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/sites/acme", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"newName": "Acme Two"}, body)
		_, _ = io.WriteString(w, `{"message":"Renommé"}`)
	})

	msg, err := client.Rename(context.Background(), "acme", "Acme Two")
	require.NoError(t, err)
	assert.Equal(t, "Renommé", msg)
}

func TestBackendClient_Rename_ErrorMessage(t *testing.T) {
	t.Parallel()
	client, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"Nom déjà pris"}`)
	})

	_, err := client.Rename(context.Background(), "acme", "Other")
	require.Error(t, err)
	assert.Equal(t, "Nom déjà pris", BackendMessage(err))
}

func TestBackendClient_Delete(t *testing.T) {
	t.Parallel()
	var gotPath string
	client, m := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Delete(context.Background(), "acme"))
	assert.Equal(t, "/api/sites/acme", gotPath)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCounter("delete", "ok")))
}

func TestBackendClient_Delete_NotFound(t *testing.T) {
	t.Parallel()
	client, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := client.Delete(context.Background(), "ghost")
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusNotFound, be.StatusCode)
	assert.Empty(t, be.Message)
}

func TestBackendClient_TransportError(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	m := metrics.New()
	client := NewBackendClient(&config.Config{APIBase: base, HTTPTimeoutSeconds: 1}, nil, zap.NewNop(), m)

	_, err := client.List(context.Background())
	require.Error(t, err)
	assert.Empty(t, BackendMessage(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCounter("list", "error")))
}

func TestBackendClient_ContextCanceled(t *testing.T) {
	t.Parallel()
	client, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
