package stages

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	devindex "github.com/devindex-app/devindex-adk"
	"github.com/devindex-app/devindex-adk/skillvec"
	"github.com/devindex-app/devindex-adk/store"
)

// Structurer turns a raw analysis text into a structured skill vector.
type Structurer interface {
	Structure(ctx context.Context, username, raw string) (skillvec.SkillVector, error)
}

// StructureOutput parses the raw analysis into a validated skill vector and
// stores it under KeySkillVector.
type StructureOutput struct {
	devindex.BaseStage
	structurer Structurer
}

// NewStructureOutput creates the structuring stage. A nil structurer defaults
// to TextStructurer.
func NewStructureOutput(structurer Structurer) *StructureOutput {
	if structurer == nil {
		structurer = TextStructurer{}
	}
	return &StructureOutput{
		BaseStage: devindex.NewBaseStage(
			"structure_output",
			"Parse the raw analysis into a structured skill vector",
			[]string{KeyUsername, KeyRawSkillVector},
			[]string{KeySkillVector},
		),
		structurer: structurer,
	}
}

// Run implements devindex.Stage.
func (s *StructureOutput) Run(rc *devindex.RunContext) error {
	username, err := store.Get[string](rc.Store(), KeyUsername)
	if err != nil {
		return err
	}
	raw, err := store.Get[string](rc.Store(), KeyRawSkillVector)
	if err != nil {
		return err
	}

	vector, err := s.structurer.Structure(rc.Context(), username, raw)
	if err != nil {
		return err
	}
	if err := vector.Validate(); err != nil {
		return err
	}

	if err := rc.SetState(KeySkillVector, vector); err != nil {
		return err
	}
	return rc.Emit(devindex.NewProgressEvent(
		fmt.Sprintf("Structured %d skills for %s", len(vector.Skills), vector.Username)))
}

// TextStructurer parses analysis text of the form produced by
// HeuristicAnalyzer: an optional "Username: x" line and one skill per
// "- name: score - reasoning" bullet. Scores outside 0-100 are clamped.
type TextStructurer struct{}

// Structure implements Structurer.
func (TextStructurer) Structure(_ context.Context, username, raw string) (skillvec.SkillVector, error) {
	v := skillvec.SkillVector{Username: username}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "Username:"); ok {
			if name := strings.TrimSpace(rest); name != "" {
				v.Username = name
			}
			continue
		}
		rest, ok := strings.CutPrefix(line, "- ")
		if !ok {
			continue
		}
		name, scorePart, ok := strings.Cut(rest, ":")
		if !ok {
			continue
		}
		scoreText := strings.TrimSpace(scorePart)
		// Drop the trailing reasoning, if any.
		if s, _, found := strings.Cut(scoreText, " "); found {
			scoreText = strings.TrimSuffix(s, ",")
		}
		score, err := strconv.Atoi(scoreText)
		if err != nil {
			continue
		}
		if score < 0 {
			score = 0
		} else if score > 100 {
			score = 100
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		v.Skills = append(v.Skills, skillvec.SkillItem{Name: name, Score: score})
	}

	if len(v.Skills) == 0 {
		return skillvec.SkillVector{}, fmt.Errorf("no skills found in analysis text")
	}
	return v, nil
}
