package stages

import (
	devindex "github.com/devindex-app/devindex-adk"
	"github.com/devindex-app/devindex-adk/store"
)

// NewDevIndexPipeline assembles the standard four-stage developer index
// pipeline: analyze, structure, render, persist. A nil structurer defaults to
// TextStructurer.
func NewDevIndexPipeline(fetcher RepoFetcher, analyzer Analyzer, structurer Structurer, saver VectorSaver, opts ...devindex.Option) *devindex.Pipeline {
	p := devindex.New("devindex", opts...)
	p.AddStage(NewAnalyzeRepo(fetcher, analyzer))
	p.AddStage(NewStructureOutput(structurer))
	p.AddStage(NewRenderSummary())
	p.AddStage(NewPersistVector(saver))
	return p
}

// InitialState builds the initial store for one analysis run.
func InitialState(username, repo string) *store.KVStore {
	return store.FromMap(map[string]any{
		KeyUsername: username,
		KeyRepo:     repo,
	})
}
