package stages

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
)

// HeuristicAnalyzer derives a skill analysis from repository structure alone:
// language byte shares become proficiency scores and well-known manifest or
// config files signal tooling skills. It needs no external service, which
// makes it the default analyzer and the one used in tests. Implementations
// backed by an LLM satisfy the same Analyzer interface.
type HeuristicAnalyzer struct{}

// Analyze implements Analyzer.
func (HeuristicAnalyzer) Analyze(_ context.Context, m RepoMaterial) (string, error) {
	skills := map[string]skillFinding{}

	total := 0
	for _, bytes := range m.Languages {
		total += bytes
	}
	for lang, bytes := range m.Languages {
		share := 0.0
		if total > 0 {
			share = float64(bytes) / float64(total)
		}
		// A language that is all of the repository scores 95, a trace
		// language still registers at 40.
		score := 40 + int(share*55)
		skills[lang] = skillFinding{
			score:  score,
			reason: fmt.Sprintf("%.0f%% of the codebase", share*100),
		}
	}

	for _, finding := range toolingFindings(m.FilePaths) {
		if existing, ok := skills[finding.name]; !ok || finding.score > existing.score {
			skills[finding.name] = skillFinding{score: finding.score, reason: finding.reason}
		}
	}

	if len(skills) == 0 {
		return "", fmt.Errorf("no skills detected in %s/%s", m.Owner, m.Repo)
	}

	names := make([]string, 0, len(skills))
	for name := range skills {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if skills[names[i]].score != skills[names[j]].score {
			return skills[names[i]].score > skills[names[j]].score
		}
		return names[i] < names[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Username: %s\n\n", m.Username)
	fmt.Fprintf(&b, "Skill analysis of %s/%s:\n\n", m.Owner, m.Repo)
	for _, name := range names {
		f := skills[name]
		fmt.Fprintf(&b, "- %s: %d - %s\n", name, f.score, f.reason)
	}
	return b.String(), nil
}

type skillFinding struct {
	score  int
	reason string
}

type namedFinding struct {
	name   string
	score  int
	reason string
}

// toolingFindings maps well-known files to tooling skills.
func toolingFindings(paths []string) []namedFinding {
	var out []namedFinding
	add := func(name string, score int, reason string) {
		out = append(out, namedFinding{name: name, score: score, reason: reason})
	}
	seen := map[string]bool{}
	for _, p := range paths {
		base := strings.ToLower(path.Base(p))
		var key string
		switch {
		case base == "dockerfile" || strings.HasPrefix(base, "docker-compose."):
			key = "docker"
			if !seen[key] {
				add("Docker", 65, fmt.Sprintf("container build config at %s", p))
			}
		case strings.Contains(p, ".github/workflows/"):
			key = "actions"
			if !seen[key] {
				add("GitHub Actions", 60, fmt.Sprintf("CI workflow at %s", p))
			}
		case strings.HasSuffix(base, ".tf"):
			key = "terraform"
			if !seen[key] {
				add("Terraform", 65, fmt.Sprintf("infrastructure config at %s", p))
			}
		case strings.HasSuffix(base, ".proto"):
			key = "grpc"
			if !seen[key] {
				add("gRPC", 60, fmt.Sprintf("protobuf definition at %s", p))
			}
		case strings.HasSuffix(base, ".sql"):
			key = "sql"
			if !seen[key] {
				add("SQL", 55, fmt.Sprintf("schema or migration at %s", p))
			}
		case base == "makefile":
			key = "make"
			if !seen[key] {
				add("Make", 50, fmt.Sprintf("build automation at %s", p))
			}
		}
		if key != "" {
			seen[key] = true
		}
	}
	return out
}
