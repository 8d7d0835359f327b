// Package gh fetches the repository material the analysis stages consume:
// repository metadata, language breakdowns, filtered file listings and file
// contents, all through the GitHub REST API.
package gh

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// RepoDetails is the repository metadata surfaced to analyzers.
type RepoDetails struct {
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Description   string   `json:"description,omitempty"`
	Topics        []string `json:"topics,omitempty"`
	Language      string   `json:"language,omitempty"`
	Stars         int      `json:"stars"`
	Fork          bool     `json:"fork"`
	DefaultBranch string   `json:"default_branch"`
}

// Options configures a Client.
type Options struct {
	// Token is the GitHub API token; anonymous access is used when empty.
	Token string
	// BaseURL overrides the API endpoint, for tests or GitHub Enterprise.
	BaseURL string
}

// Client wraps the GitHub API for repository analysis.
type Client struct {
	gh *github.Client
}

// NewClient creates a GitHub client with optional overrides.
func NewClient(optFns ...func(o *Options)) (*Client, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	var c *github.Client
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		c = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		c = github.NewClient(nil)
	}

	if opts.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse base URL: %w", err)
		}
		c.BaseURL = u
		c.UploadURL = u
	}

	return &Client{gh: c}, nil
}

// SplitRepo resolves a repository argument against a username: "owner/name"
// is split as-is, a bare "name" is assumed to be owned by username. It
// returns the owner, the bare name and the full "owner/name" form.
func SplitRepo(username, repo string) (owner, name, fullName string) {
	if i := strings.Index(repo, "/"); i >= 0 {
		return repo[:i], repo[i+1:], repo
	}
	return username, repo, username + "/" + repo
}

// RepoDetails fetches repository metadata.
func (c *Client) RepoDetails(ctx context.Context, owner, repo string) (*RepoDetails, error) {
	r, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetch repo details for %s/%s: %w", owner, repo, err)
	}

	return &RepoDetails{
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		Topics:        r.Topics,
		Language:      r.GetLanguage(),
		Stars:         r.GetStargazersCount(),
		Fork:          r.GetFork(),
		DefaultBranch: r.GetDefaultBranch(),
	}, nil
}

// Languages fetches the byte-count language breakdown of the repository.
func (c *Client) Languages(ctx context.Context, owner, repo string) (map[string]int, error) {
	langs, _, err := c.gh.Repositories.ListLanguages(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetch languages for %s/%s: %w", owner, repo, err)
	}
	return langs, nil
}

// FilePaths lists every file in the repository's default branch, filtering
// out dependency, build, cache and IDE directories that carry no signal about
// the author's own code.
func (c *Client) FilePaths(ctx context.Context, owner, repo string) ([]string, error) {
	r, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetch repo for %s/%s: %w", owner, repo, err)
	}

	branch := r.GetDefaultBranch()
	if branch == "" {
		branch = "main"
	}

	tree, _, err := c.gh.Git.GetTree(ctx, owner, repo, branch, true)
	if err != nil {
		return nil, fmt.Errorf("fetch file tree for %s/%s: %w", owner, repo, err)
	}

	var paths []string
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}
		if SkippablePath(entry.GetPath()) {
			continue
		}
		paths = append(paths, entry.GetPath())
	}
	return paths, nil
}

// FileContent fetches the decoded content of one file.
func (c *Client) FileContent(ctx context.Context, owner, repo, path string) (string, error) {
	file, _, _, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return "", fmt.Errorf("fetch file %s from %s/%s: %w", path, owner, repo, err)
	}
	if file == nil {
		return "", fmt.Errorf("path %s in %s/%s is not a file", path, owner, repo)
	}

	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode file %s from %s/%s: %w", path, owner, repo, err)
	}
	return content, nil
}

// skipDirs are directory names whose contents are irrelevant for skill
// analysis: dependencies, version control internals, caches, build output,
// coverage, IDE settings and virtual environments.
var skipDirs = map[string]bool{
	"node_modules": true, "vendor": true, "bower_components": true,
	".git": true, ".svn": true, ".hg": true,
	"__pycache__": true, ".pytest_cache": true, ".mypy_cache": true,
	"dist": true, "build": true, "out": true, "bin": true, "obj": true,
	".next": true, ".nuxt": true, ".cache": true,
	"coverage": true, ".nyc_output": true,
	".idea": true, ".vscode": true, ".settings": true,
	"venv": true, ".venv": true, "env": true,
}

// SkippablePath reports whether any segment of the path is a filtered
// directory.
func SkippablePath(path string) bool {
	for _, segment := range strings.Split(path, "/") {
		if skipDirs[segment] {
			return true
		}
	}
	return false
}
