package stages

import (
	"context"
	"fmt"

	devindex "github.com/devindex-app/devindex-adk"
	"github.com/devindex-app/devindex-adk/skillvec"
	"github.com/devindex-app/devindex-adk/store"
)

// VectorSaver persists a skill map for a user and repository, merging with
// any previously stored vector. *skillvec.Store satisfies it.
type VectorSaver interface {
	SaveOrUpdate(ctx context.Context, username, repo string, skills map[string]int) (*skillvec.Record, error)
}

// PersistVector writes the structured skill vector to durable storage. It is
// a terminal stage: it produces no state keys, only a confirmation event.
type PersistVector struct {
	devindex.BaseStage
	saver VectorSaver
}

// NewPersistVector creates the persistence stage.
func NewPersistVector(saver VectorSaver) *PersistVector {
	return &PersistVector{
		BaseStage: devindex.NewBaseStage(
			"persist_vector",
			"Persist the skill vector to the developer index",
			[]string{KeyUsername, KeyRepo, KeySkillVector},
			nil,
		),
		saver: saver,
	}
}

// Run implements devindex.Stage.
func (s *PersistVector) Run(rc *devindex.RunContext) error {
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

	record, err := s.saver.SaveOrUpdate(rc.Context(), username, repo, vector.Scores())
	if err != nil {
		return fmt.Errorf("persist skill vector: %w", err)
	}

	return rc.Emit(devindex.NewProgressEvent(
		fmt.Sprintf("Saved skill vector %s for %s/%s with %d skills",
			record.ID, username, repo, len(record.Skills))))
}
