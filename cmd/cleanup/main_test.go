package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasvincent/github-runner-cleanup/internal/github"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type recordingServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []string
}

func newRecordingServer(t *testing.T, h http.HandlerFunc) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.requests = append(rs.requests, r.Method+" "+r.URL.Path)
		rs.mu.Unlock()
		h(w, r)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) calls() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string(nil), rs.requests...)
}

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestRealMainMissingConfigMakesNoRequests(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"no org", map[string]string{"GITHUB_TOKEN": "ghp_x"}},
		{"no token", map[string]string{"GITHUB_ORG": "acme"}},
		{"nothing", map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
			tt.env["GITHUB_API_URL"] = srv.URL

			require.Equal(t, 1, realMain(envFrom(tt.env)))
			assert.Empty(t, srv.calls())
		})
	}
}

func TestRealMainInvalidConfigExitsOne(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {})

	code := realMain(envFrom(map[string]string{
		"GITHUB_ORG":     "acme",
		"GITHUB_TOKEN":   "ghp_x",
		"GITHUB_API_URL": srv.URL,
		"DELETE_DELAY":   "whenever",
	}))
	require.Equal(t, 1, code)
	assert.Empty(t, srv.calls())
}

func TestRealMainRunsCleanup(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total_count":2,"runners":[{"id":1,"name":"a","status":"online"},{"id":2,"name":"b","status":"offline"}]}`)
	})

	code := realMain(envFrom(map[string]string{
		"GITHUB_ORG":     "acme",
		"GITHUB_TOKEN":   "ghp_x",
		"GITHUB_API_URL": srv.URL,
		"PAGE_DELAY":     "0s",
		"DELETE_DELAY":   "0s",
	}))
	require.Equal(t, 0, code)
	assert.Equal(t, []string{
		"GET /orgs/acme/actions/runners",
		"DELETE /orgs/acme/actions/runners/2",
	}, srv.calls())
}

func TestRealMainCollectionFailureExitsZero(t *testing.T) {
	srv := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	})

	code := realMain(envFrom(map[string]string{
		"GITHUB_ORG":     "acme",
		"GITHUB_TOKEN":   "ghp_x",
		"GITHUB_API_URL": srv.URL,
	}))
	require.Equal(t, 0, code)
	assert.Equal(t, []string{"GET /orgs/acme/actions/runners"}, srv.calls())
}

func TestRunnerNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, runnerNames([]github.Runner{{Name: "a"}, {Name: "b"}}))
	assert.Empty(t, runnerNames(nil))
}
