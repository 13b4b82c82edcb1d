package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLI_PrintsTable(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":2,"timestamp":"2026-03-01T12:00:10Z","target_name":"NonExistentAPI","latency_ms":0,"status_code":-1,"error_message":"Connection Error","status":"connection_error"},
			{"id":1,"timestamp":"2026-03-01T12:00:00Z","target_name":"Google","latency_ms":42.5,"status_code":200,"error_message":null,"status":"success"}
		]`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--api", srv.URL, "5"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "5", gotLimit)
	s := out.String()
	assert.Contains(t, s, "Connection Error")
	assert.Contains(t, s, "42.5")
	assert.Contains(t, s, "Google")
}

func TestCLI_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--api", srv.URL})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	cmd = newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--api", srv.URL, "zero"})
	assert.Error(t, cmd.Execute())
}

func TestRender_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, render(&out, nil))
	assert.Equal(t, "No observations yet.\n", out.String())
}
