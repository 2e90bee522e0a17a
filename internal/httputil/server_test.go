package httputil

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMonitorMux(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "tdemetric_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	mux := NewMonitorMux(reg, func() any {
		return map[string]int{"evaluated": 3}
	})

	testCases := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"healthz", http.MethodGet, "/healthz", http.StatusOK, `{"status":"ok"}`},
		{"healthz post", http.MethodPost, "/healthz", http.StatusMethodNotAllowed, `{"error":"method not allowed"}`},
		{"status", http.MethodGet, "/status", http.StatusOK, `{"evaluated":3}`},
		{"status delete", http.MethodDelete, "/status", http.StatusMethodNotAllowed, `{"error":"method not allowed"}`},
		{"unknown", http.MethodGet, "/nope", http.StatusNotFound, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantBody != "" {
				assert.JSONEq(t, tc.wantBody, rr.Body.String())
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			}
			if tc.wantStatus == http.StatusMethodNotAllowed {
				assert.Equal(t, http.MethodGet, rr.Header().Get("Allow"))
			}
		})
	}

	t.Run("metrics", func(t *testing.T) {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "tdemetric_test_total 1")
	})
}

func TestNewMonitorMux_NoStatus(t *testing.T) {
	mux := NewMonitorMux(prometheus.NewRegistry(), nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWriteJSONError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSONError(rr, http.StatusBadRequest, "bad things")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "bad things", body["error"])
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, NewMonitorMux(prometheus.NewRegistry(), nil)) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_BadAddr(t *testing.T) {
	err := Serve(context.Background(), "not-an-address", http.NewServeMux())
	assert.Error(t, err)
}
