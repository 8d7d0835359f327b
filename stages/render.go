package stages

import (
	"fmt"
	"sort"
	"strings"

	devindex "github.com/devindex-app/devindex-adk"
	"github.com/devindex-app/devindex-adk/skillvec"
	"github.com/devindex-app/devindex-adk/store"
)

// RenderSummary formats the structured skill vector into the user-visible
// summary text and stores it under KeySkillVectorOutput.
type RenderSummary struct {
	devindex.BaseStage
}

// NewRenderSummary creates the rendering stage.
func NewRenderSummary() *RenderSummary {
	return &RenderSummary{
		BaseStage: devindex.NewBaseStage(
			"render_summary",
			"Render the skill vector as a readable summary",
			[]string{KeyUsername, KeyRepo, KeySkillVector},
			[]string{KeySkillVectorOutput},
		),
	}
}

// Run implements devindex.Stage.
func (s *RenderSummary) Run(rc *devindex.RunContext) error {
	username, err := store.Get[string](rc.Store(), KeyUsername)
	if err != nil {
		return err
	}
	repo, err := store.Get[string](rc.Store(), KeyRepo)
	if err != nil {
		return err
	}
	vector, err := store.Get[skillvec.SkillVector](rc.Store(), KeySkillVector)
	if err != nil {
		return err
	}

	text := FormatSummary(username, repo, vector)
	if err := rc.SetState(KeySkillVectorOutput, text); err != nil {
		return err
	}
	return rc.Emit(devindex.NewOutputEvent(text, map[string]any{
		"username": username,
		"repo":     repo,
		"skills":   vector.Scores(),
	}))
}

// FormatSummary renders a skill vector as indented "name: score" lines sorted
// by descending score, with name as the tiebreak.
func FormatSummary(username, repo string, vector skillvec.SkillVector) string {
	skills := make([]skillvec.SkillItem, len(vector.Skills))
	copy(skills, vector.Skills)
	sort.Slice(skills, func(i, j int) bool {
		if skills[i].Score != skills[j].Score {
			return skills[i].Score > skills[j].Score
		}
		return skills[i].Name < skills[j].Name
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Skill Vector for %s (Repository: %s):\n", username, repo)
	for _, item := range skills {
		fmt.Fprintf(&b, "  %s: %d\n", item.Name, item.Score)
	}
	return b.String()
}
