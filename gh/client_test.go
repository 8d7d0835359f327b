package gh

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(func(o *Options) {
		o.BaseURL = server.URL
	})
	require.NoError(t, err)
	return client
}

func TestSplitRepo(t *testing.T) {
	owner, name, full := SplitRepo("octocat", "hello-world")
	assert.Equal(t, "octocat", owner)
	assert.Equal(t, "hello-world", name)
	assert.Equal(t, "octocat/hello-world", full)

	owner, name, full = SplitRepo("octocat", "upstream/other")
	assert.Equal(t, "upstream", owner)
	assert.Equal(t, "other", name)
	assert.Equal(t, "upstream/other", full)
}

func TestRepoDetails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello-world", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"name": "hello-world",
			"full_name": "octocat/hello-world",
			"description": "My first repository",
			"topics": ["demo", "tutorial"],
			"language": "Go",
			"stargazers_count": 42,
			"fork": false,
			"default_branch": "main"
		}`)
	})
	client := newTestClient(t, mux)

	details, err := client.RepoDetails(context.Background(), "octocat", "hello-world")
	require.NoError(t, err)

	assert.Equal(t, "hello-world", details.Name)
	assert.Equal(t, "octocat/hello-world", details.FullName)
	assert.Equal(t, "My first repository", details.Description)
	assert.Equal(t, []string{"demo", "tutorial"}, details.Topics)
	assert.Equal(t, "Go", details.Language)
	assert.Equal(t, 42, details.Stars)
	assert.False(t, details.Fork)
	assert.Equal(t, "main", details.DefaultBranch)
}

func TestRepoDetailsNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	}))

	_, err := client.RepoDetails(context.Background(), "octocat", "missing")
	assert.Error(t, err)
}

func TestLanguages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello-world/languages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Go": 9000, "Makefile": 500}`)
	})
	client := newTestClient(t, mux)

	languages, err := client.Languages(context.Background(), "octocat", "hello-world")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Go": 9000, "Makefile": 500}, languages)
}

func TestFilePaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello-world", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "hello-world", "default_branch": "main"}`)
	})
	mux.HandleFunc("/repos/octocat/hello-world/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("recursive"))
		fmt.Fprint(w, `{
			"sha": "abc123",
			"tree": [
				{"path": "README.md", "type": "blob"},
				{"path": "main.go", "type": "blob"},
				{"path": "internal", "type": "tree"},
				{"path": "internal/server.go", "type": "blob"},
				{"path": "node_modules/lodash/index.js", "type": "blob"},
				{"path": "vendor/github.com/pkg/errors/errors.go", "type": "blob"},
				{"path": ".git/config", "type": "blob"},
				{"path": "dist/bundle.js", "type": "blob"}
			]
		}`)
	})
	client := newTestClient(t, mux)

	paths, err := client.FilePaths(context.Background(), "octocat", "hello-world")
	require.NoError(t, err)

	// Trees and filtered directories are excluded
	assert.Equal(t, []string{"README.md", "main.go", "internal/server.go"}, paths)
}

func TestFileContent(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("package main\n"))

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/hello-world/contents/main.go", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"type": "file",
			"name": "main.go",
			"path": "main.go",
			"encoding": "base64",
			"content": %q
		}`, encoded)
	})
	client := newTestClient(t, mux)

	content, err := client.FileContent(context.Background(), "octocat", "hello-world", "main.go")
	require.NoError(t, err)
	assert.Equal(t, "package main\n", content)
}

func TestSkippablePath(t *testing.T) {
	assert.True(t, SkippablePath("node_modules/lodash/index.js"))
	assert.True(t, SkippablePath("src/vendor/lib.go"))
	assert.True(t, SkippablePath("__pycache__/mod.pyc"))
	assert.False(t, SkippablePath("src/main.go"))
	assert.False(t, SkippablePath("README.md"))
}
