package stages

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	devindex "github.com/devindex-app/devindex-adk"
	"github.com/devindex-app/devindex-adk/gh"
	"github.com/devindex-app/devindex-adk/store"
)

// RepoFetcher retrieves the material AnalyzeRepo feeds into the analyzer.
// *gh.Client satisfies it.
type RepoFetcher interface {
	RepoDetails(ctx context.Context, owner, repo string) (*gh.RepoDetails, error)
	Languages(ctx context.Context, owner, repo string) (map[string]int, error)
	FilePaths(ctx context.Context, owner, repo string) ([]string, error)
	FileContent(ctx context.Context, owner, repo, path string) (string, error)
}

// RepoMaterial is everything fetched about a repository for one analysis.
type RepoMaterial struct {
	Username  string
	Owner     string
	Repo      string
	Details   *gh.RepoDetails
	Languages map[string]int
	FilePaths []string
	// KeyFiles maps a sampled subset of FilePaths to their contents.
	KeyFiles map[string]string
}

// Analyzer turns fetched repository material into a free-form skill analysis.
// The text must name skills with 0-100 proficiency scores in the form
// StructureOutput can parse.
type Analyzer interface {
	Analyze(ctx context.Context, material RepoMaterial) (string, error)
}

// maxKeyFiles bounds how many file contents are fetched per repository.
const maxKeyFiles = 12

// maxKeyFileBytes truncates individual key files so one large file cannot
// drown out the rest of the material.
const maxKeyFileBytes = 16 * 1024

// AnalyzeRepo fetches a repository's metadata, languages, file listing and a
// sample of key files, runs the analyzer over them and stores the raw
// analysis text.
type AnalyzeRepo struct {
	devindex.BaseStage
	fetcher  RepoFetcher
	analyzer Analyzer
}

// NewAnalyzeRepo creates the repository analysis stage.
func NewAnalyzeRepo(fetcher RepoFetcher, analyzer Analyzer) *AnalyzeRepo {
	return &AnalyzeRepo{
		BaseStage: devindex.NewBaseStage(
			"analyze_repo",
			"Fetch repository material and produce a raw skill analysis",
			[]string{KeyUsername, KeyRepo},
			[]string{KeyRawSkillVector},
		),
		fetcher:  fetcher,
		analyzer: analyzer,
	}
}

// Run implements devindex.Stage.
func (s *AnalyzeRepo) Run(rc *devindex.RunContext) error {
	username, err := store.Get[string](rc.Store(), KeyUsername)
	if err != nil {
		return err
	}
	repoArg, err := store.Get[string](rc.Store(), KeyRepo)
	if err != nil {
		return err
	}
	owner, repo, fullName := gh.SplitRepo(username, repoArg)
	ctx := rc.Context()

	if err := rc.Emit(devindex.NewProgressEvent(fmt.Sprintf("Fetching repository %s", fullName))); err != nil {
		return err
	}
	details, err := s.fetcher.RepoDetails(ctx, owner, repo)
	if err != nil {
		return err
	}

	languages, err := s.fetcher.Languages(ctx, owner, repo)
	if err != nil {
		return err
	}

	if err := rc.Emit(devindex.NewProgressEvent(fmt.Sprintf("Listing files in %s", fullName))); err != nil {
		return err
	}
	paths, err := s.fetcher.FilePaths(ctx, owner, repo)
	if err != nil {
		return err
	}

	keyPaths := selectKeyFiles(paths, maxKeyFiles)
	keyFiles := make(map[string]string, len(keyPaths))
	for _, p := range keyPaths {
		content, err := s.fetcher.FileContent(ctx, owner, repo, p)
		if err != nil {
			rc.Logger().Warn("skipping unreadable file %s: %v", p, err)
			continue
		}
		if len(content) > maxKeyFileBytes {
			content = content[:maxKeyFileBytes]
		}
		keyFiles[p] = content
	}

	if err := rc.Emit(devindex.NewProgressEvent(fmt.Sprintf("Analyzing %d files from %s", len(paths), fullName))); err != nil {
		return err
	}
	raw, err := s.analyzer.Analyze(ctx, RepoMaterial{
		Username:  username,
		Owner:     owner,
		Repo:      repo,
		Details:   details,
		Languages: languages,
		FilePaths: paths,
		KeyFiles:  keyFiles,
	})
	if err != nil {
		return err
	}

	if err := rc.SetState(KeyRawSkillVector, raw); err != nil {
		return err
	}
	return rc.Emit(devindex.NewMessageEvent(raw))
}

// keyFileScore ranks a path for sampling. Higher is fetched first. Entry
// points, documentation and build manifests describe a project better than an
// arbitrary source file, and shallow files better than deeply nested ones.
func keyFileScore(p string) int {
	base := strings.ToLower(path.Base(p))
	score := 0
	switch {
	case strings.HasPrefix(base, "readme"):
		score = 100
	case base == "go.mod" || base == "package.json" || base == "pyproject.toml" ||
		base == "setup.py" || base == "requirements.txt" || base == "cargo.toml" ||
		base == "pom.xml" || base == "build.gradle" || base == "gemfile" ||
		base == "composer.json":
		score = 90
	case base == "dockerfile" || base == "docker-compose.yml" || base == "docker-compose.yaml" ||
		base == "makefile":
		score = 80
	case strings.HasPrefix(base, "main.") || strings.HasPrefix(base, "index.") ||
		strings.HasPrefix(base, "app."):
		score = 70
	case strings.HasSuffix(base, ".tf") || strings.Contains(p, ".github/workflows/"):
		score = 60
	}
	// Penalize nesting so the repository's top level dominates.
	score -= strings.Count(p, "/") * 5
	return score
}

// selectKeyFiles picks up to max paths worth fetching, ordered by score with
// path as a deterministic tiebreak.
func selectKeyFiles(paths []string, max int) []string {
	type scored struct {
		path  string
		score int
	}
	candidates := make([]scored, 0, len(paths))
	for _, p := range paths {
		if sc := keyFileScore(p); sc > 0 {
			candidates = append(candidates, scored{path: p, score: sc})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].path < candidates[j].path
	})
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.path
	}
	return out
}
