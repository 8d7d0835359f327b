package skillvec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillVectorValidate(t *testing.T) {
	valid := SkillVector{
		Username: "octocat",
		Skills: []SkillItem{
			{Name: "Go", Score: 85},
			{Name: "Docker", Score: 0},
			{Name: "SQL", Score: 100},
		},
	}
	assert.NoError(t, valid.Validate())

	tooHigh := SkillVector{
		Username: "octocat",
		Skills:   []SkillItem{{Name: "Go", Score: 101}},
	}
	assert.Error(t, tooHigh.Validate())

	negative := SkillVector{
		Username: "octocat",
		Skills:   []SkillItem{{Name: "Go", Score: -1}},
	}
	assert.Error(t, negative.Validate())
}

func TestScoresKeepsMax(t *testing.T) {
	v := SkillVector{
		Username: "octocat",
		Skills: []SkillItem{
			{Name: "Go", Score: 70},
			{Name: "Go", Score: 85},
			{Name: "Go", Score: 60},
			{Name: "SQL", Score: 40},
		},
	}

	scores := v.Scores()
	assert.Equal(t, 85, scores["Go"])
	assert.Equal(t, 40, scores["SQL"])
	assert.Len(t, scores, 2)
}

func TestMerge(t *testing.T) {
	old := map[string]int{"Python": 80, "SQL": 60}
	new := map[string]int{"Python": 70, "Go": 90}

	merged := Merge(old, new)

	// Existing skills keep their higher score, new skills are added
	assert.Equal(t, 80, merged["Python"])
	assert.Equal(t, 60, merged["SQL"])
	assert.Equal(t, 90, merged["Go"])
	assert.Len(t, merged, 3)

	// Inputs are left untouched
	assert.Equal(t, map[string]int{"Python": 80, "SQL": 60}, old)
	assert.Equal(t, map[string]int{"Python": 70, "Go": 90}, new)
}

func TestMergeEmpty(t *testing.T) {
	assert.Equal(t, map[string]int{"Go": 90}, Merge(nil, map[string]int{"Go": 90}))
	assert.Equal(t, map[string]int{"Go": 90}, Merge(map[string]int{"Go": 90}, nil))
	assert.Empty(t, Merge(nil, nil))
}

func TestCosineSimilarity(t *testing.T) {
	a := []float64{0.9, 0.6, 0}
	b := []float64{0.9, 0.6, 0}
	assert.InDelta(t, 1.0, CosineSimilarity(a, b), 1e-9)

	// Orthogonal vectors
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)

	// Zero vectors never divide by zero
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, []float64{1}))

	// Scaled copies still count as identical directions
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{0.2, 0.4}, []float64{0.4, 0.8}), 1e-9)
}

func TestVocabularyEncodeDecode(t *testing.T) {
	vocab := NewVocabulary(DefaultDimensions)
	vocab.AddAll(map[string]int{"Go": 90, "Docker": 65, "SQL": 40})

	assert.Equal(t, 3, vocab.Len())

	vector := vocab.Encode(map[string]int{"Go": 90, "SQL": 40})
	require.Len(t, vector, DefaultDimensions)

	decoded := vocab.Decode(vector)
	assert.Equal(t, 90, decoded["Go"])
	assert.Equal(t, 40, decoded["SQL"])
	_, hasDocker := decoded["Docker"]
	assert.False(t, hasDocker)
}

func TestVocabularyStableAssignment(t *testing.T) {
	a := NewVocabulary(DefaultDimensions)
	a.AddAll(map[string]int{"Go": 90, "Docker": 65, "SQL": 40})

	b := NewVocabulary(DefaultDimensions)
	b.AddAll(map[string]int{"SQL": 40, "Go": 90, "Docker": 65})

	// Same skill set assigns the same indices regardless of map order
	va := a.Encode(map[string]int{"Go": 90})
	vb := b.Encode(map[string]int{"Go": 90})
	assert.Equal(t, va, vb)
}

func TestVocabularyFull(t *testing.T) {
	vocab := NewVocabulary(2)

	_, err := vocab.Add("Go")
	require.NoError(t, err)
	_, err = vocab.Add("SQL")
	require.NoError(t, err)

	_, err = vocab.Add("Docker")
	assert.Error(t, err)
	assert.Equal(t, 2, vocab.Len())

	// Re-adding a known skill is not an error
	idx, err := vocab.Add("Go")
	assert.NoError(t, err)
	assert.Equal(t, 0, idx)
}
