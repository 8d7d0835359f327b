package skillvec

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveNewRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.SaveOrUpdate(ctx, "octocat", "hello-world", map[string]int{"Go": 85, "Docker": 60})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "octocat", rec.Username)
	assert.Equal(t, "hello-world", rec.RepoName)
	assert.Equal(t, map[string]int{"Go": 85, "Docker": 60}, rec.Skills)
	assert.Len(t, rec.Vector, DefaultDimensions)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)
}

func TestSaveMergesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.SaveOrUpdate(ctx, "octocat", "hello-world", map[string]int{"Python": 80, "SQL": 60})
	require.NoError(t, err)

	second, err := s.SaveOrUpdate(ctx, "octocat", "hello-world", map[string]int{"Python": 70, "Go": 90})
	require.NoError(t, err)

	// Same row, merged scores: max for overlapping skills, union otherwise
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, map[string]int{"Python": 80, "SQL": 60, "Go": 90}, second.Skills)

	stored, err := s.Get(ctx, "octocat", "hello-world")
	require.NoError(t, err)
	assert.Equal(t, second.Skills, stored.Skills)
}

func TestSaveEmptySkills(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveOrUpdate(context.Background(), "octocat", "hello-world", nil)
	assert.Error(t, err)
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "octocat", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReposForUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveOrUpdate(ctx, "octocat", "zoo", map[string]int{"Go": 80})
	require.NoError(t, err)
	_, err = s.SaveOrUpdate(ctx, "octocat", "api", map[string]int{"Python": 70})
	require.NoError(t, err)
	_, err = s.SaveOrUpdate(ctx, "other", "api", map[string]int{"Rust": 60})
	require.NoError(t, err)

	records, err := s.ReposForUser(ctx, "octocat")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "api", records[0].RepoName)
	assert.Equal(t, "zoo", records[1].RepoName)
}

func TestSearchBySkills(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveOrUpdate(ctx, "alice", "frontend", map[string]int{"javascript": 80, "react": 70})
	require.NoError(t, err)
	_, err = s.SaveOrUpdate(ctx, "bob", "scripts", map[string]int{"javascript": 30})
	require.NoError(t, err)
	_, err = s.SaveOrUpdate(ctx, "carol", "fullstack", map[string]int{"javascript": 60, "react": 50, "Go": 90})
	require.NoError(t, err)

	records, err := s.SearchBySkills(ctx, map[string]int{"javascript": 40, "react": 50}, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	usernames := []string{records[0].Username, records[1].Username}
	assert.ElementsMatch(t, []string{"alice", "carol"}, usernames)

	// Limit caps the result set
	limited, err := s.SearchBySkills(ctx, map[string]int{"javascript": 40}, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSearchByVector(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveOrUpdate(ctx, "alice", "frontend", map[string]int{"Go": 90, "Docker": 60})
	require.NoError(t, err)
	_, err = s.SaveOrUpdate(ctx, "carol", "services", map[string]int{"Go": 85, "Docker": 55})
	require.NoError(t, err)
	_, err = s.SaveOrUpdate(ctx, "bob", "scripts", map[string]int{"Python": 80})
	require.NoError(t, err)

	query := s.QueryVector(map[string]int{"Go": 90, "Docker": 60})

	matches, err := s.SearchByVector(ctx, query, 0, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Most similar first: alice's vector is the query itself
	assert.Equal(t, "alice", matches[0].Username)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
	assert.Equal(t, "carol", matches[1].Username)
	assert.Greater(t, matches[1].Similarity, 0.9)

	// Disjoint skills fall below the threshold
	for _, m := range matches {
		assert.NotEqual(t, "bob", m.Username)
	}

	// Limit caps the result set
	limited, err := s.SearchByVector(ctx, query, 1, 0.5)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "alice", limited[0].Username)
}

func TestAllDevelopers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveOrUpdate(ctx, "bob", "scripts", map[string]int{"Python": 80})
	require.NoError(t, err)
	_, err = s.SaveOrUpdate(ctx, "alice", "frontend", map[string]int{"Go": 90})
	require.NoError(t, err)

	records, err := s.AllDevelopers(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "alice", records[0].Username)
	assert.Equal(t, "bob", records[1].Username)

	limited, err := s.AllDevelopers(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestVectorRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.SaveOrUpdate(ctx, "octocat", "hello-world", map[string]int{"Go": 90, "SQL": 29})
	require.NoError(t, err)

	decoded := s.vocab.Decode(rec.Vector)
	assert.Equal(t, map[string]int{"Go": 90, "SQL": 29}, decoded)
}

func TestVocabularyPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devindex.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	first, err := s.SaveOrUpdate(ctx, "octocat", "hello-world", map[string]int{"Go": 90, "Docker": 60})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening rebuilds the vocabulary, so the same skills land on the same
	// dimensions in new encodings.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	second, err := s2.SaveOrUpdate(ctx, "other", "repo", map[string]int{"Go": 90, "Docker": 60})
	require.NoError(t, err)
	assert.Equal(t, first.Vector, second.Vector)
}
