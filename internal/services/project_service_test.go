package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reposJSON = `[
	{"name": "toonarmycaptain.com", "description": "This site", "html_url": "https://github.com/toonarmycaptain/toonarmycaptain.com", "language": "Go", "stargazers_count": 3, "updated_at": "2024-01-02T03:04:05Z"},
	{"name": "forked", "fork": true, "html_url": "https://github.com/toonarmycaptain/forked"},
	{"name": "old", "archived": true, "html_url": "https://github.com/toonarmycaptain/old"}
]`

func newTestProjectService(t *testing.T, handler http.HandlerFunc) *ProjectService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewProjectService("toonarmycaptain", "", discardLogger())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	svc.client.BaseURL = baseURL
	return svc
}

func TestProjectService_ListsOwnedRepositories(t *testing.T) {
	var calls atomic.Int32
	svc := newTestProjectService(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/users/toonarmycaptain/repos", r.URL.Path)
		assert.Equal(t, "owner", r.URL.Query().Get("type"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, reposJSON)
	})

	projects := svc.Projects(context.Background())
	require.Len(t, projects, 1, "Forks and archived repositories are skipped")
	assert.Equal(t, "toonarmycaptain.com", projects[0].Name)
	assert.Equal(t, "This site", projects[0].Description)
	assert.Equal(t, "Go", projects[0].Language)
	assert.Equal(t, 3, projects[0].Stars)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), projects[0].UpdatedAt.UTC())

	// Served from cache within the TTL.
	svc.Projects(context.Background())
	assert.Equal(t, int32(1), calls.Load())
}

func TestProjectService_RefreshesAfterTTL(t *testing.T) {
	var calls atomic.Int32
	svc := newTestProjectService(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, reposJSON)
	})
	svc.ttl = 0

	svc.Projects(context.Background())
	svc.Projects(context.Background())
	assert.Equal(t, int32(2), calls.Load())
}

func TestProjectService_ErrorServesCachedList(t *testing.T) {
	var fail atomic.Bool
	svc := newTestProjectService(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, `{"message": "API rate limit exceeded"}`, http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, reposJSON)
	})
	svc.ttl = 0

	require.Len(t, svc.Projects(context.Background()), 1)

	fail.Store(true)
	assert.Len(t, svc.Projects(context.Background()), 1, "Last good list is kept when GitHub fails")
}

func TestProjectService_ErrorWithEmptyCache(t *testing.T) {
	svc := newTestProjectService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	})

	assert.Empty(t, svc.Projects(context.Background()))
}

func TestProjectService_NoUsername(t *testing.T) {
	svc := NewProjectService("", "token", discardLogger())
	assert.Nil(t, svc.Projects(context.Background()))

	var nilService *ProjectService
	assert.Nil(t, nilService.Projects(context.Background()))
}

func TestProjectService_ErrorBacksOffForTTL(t *testing.T) {
	var calls atomic.Int32
	svc := newTestProjectService(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"message": "Server Error"}`, http.StatusBadGateway)
	})
	svc.ttl = time.Hour

	for i := 0; i < 3; i++ {
		assert.Empty(t, svc.Projects(context.Background()))
	}
	assert.Equal(t, int32(1), calls.Load(), "A failed fetch is not retried within the TTL")
}

func TestProjectService_FetchTimeout(t *testing.T) {
	svc := newTestProjectService(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	svc.fetchTimeout = 50 * time.Millisecond

	start := time.Now()
	assert.Empty(t, svc.Projects(context.Background()))
	assert.Less(t, time.Since(start), 2*time.Second, "A hung GitHub request is cut off")
}
