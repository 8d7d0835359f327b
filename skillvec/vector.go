package skillvec

import (
	"fmt"
	"math"
	"sort"
)

// SkillItem is an individual skill with its 0-100 score.
type SkillItem struct {
	// Name is the skill name, e.g. "javascript", "react", "docker".
	Name string `json:"name"`
	// Score is the skill score from 0 to 100.
	Score int `json:"score"`
}

// SkillVector is the structured analysis result for one developer: a username
// plus a list of scored skills covering languages, frameworks, tools and
// domains.
type SkillVector struct {
	Username string      `json:"username"`
	Skills   []SkillItem `json:"skills"`
}

// Validate checks that every skill has a name and a score within 0-100.
func (v SkillVector) Validate() error {
	for _, s := range v.Skills {
		if s.Name == "" {
			return fmt.Errorf("skill with empty name")
		}
		if s.Score < 0 || s.Score > 100 {
			return fmt.Errorf("skill '%s' has score %d outside 0-100", s.Name, s.Score)
		}
	}
	return nil
}

// Scores returns the vector's skills as a name-to-score map. Duplicate names
// keep the highest score.
func (v SkillVector) Scores() map[string]int {
	out := make(map[string]int, len(v.Skills))
	for _, s := range v.Skills {
		if existing, ok := out[s.Name]; !ok || s.Score > existing {
			out[s.Name] = s.Score
		}
	}
	return out
}

// Merge combines two skill score maps: for skills present in both, the result
// keeps max(old, new); skills present in only one side are unioned in.
//
// Example:
//
//	old: {"javascript": 20, "react": 50}
//	new: {"react": 70, "docker": 30}
//	result: {"javascript": 20, "react": 70, "docker": 30}
func Merge(old, new map[string]int) map[string]int {
	merged := make(map[string]int, len(old)+len(new))
	for name, score := range old {
		merged[name] = score
	}
	for name, score := range new {
		if existing, ok := merged[name]; !ok || score > existing {
			merged[name] = score
		}
	}
	return merged
}

// CosineSimilarity returns the cosine similarity of two vectors in [0, 1]
// for non-negative inputs. Length mismatches compare the overlapping prefix;
// a zero vector yields 0.
func CosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// DefaultDimensions is the default vector width, matching the persistence
// schema's column dimensionality.
const DefaultDimensions = 200

// Vocabulary maps skill names to stable vector indices. It is bounded: once
// full, unknown skills cannot be encoded.
type Vocabulary struct {
	maxDimensions int
	indices       map[string]int
}

// NewVocabulary creates an empty vocabulary with the given maximum number of
// dimensions. Non-positive values fall back to DefaultDimensions.
func NewVocabulary(maxDimensions int) *Vocabulary {
	if maxDimensions <= 0 {
		maxDimensions = DefaultDimensions
	}
	return &Vocabulary{
		maxDimensions: maxDimensions,
		indices:       make(map[string]int),
	}
}

// Add assigns an index to the skill if it does not already have one. It
// returns the index, or an error when the vocabulary is full.
func (v *Vocabulary) Add(name string) (int, error) {
	if idx, ok := v.indices[name]; ok {
		return idx, nil
	}
	if len(v.indices) >= v.maxDimensions {
		return 0, fmt.Errorf("skill vocabulary full (%d dimensions)", v.maxDimensions)
	}
	idx := len(v.indices)
	v.indices[name] = idx
	return idx, nil
}

// Len returns the number of skills in the vocabulary.
func (v *Vocabulary) Len() int { return len(v.indices) }

// AddAll loads every skill name from the given score maps, in sorted order
// for stable index assignment. Skills past the dimension cap are skipped.
func (v *Vocabulary) AddAll(scoreMaps ...map[string]int) {
	names := make(map[string]struct{})
	for _, scores := range scoreMaps {
		for name := range scores {
			names[name] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		if len(v.indices) >= v.maxDimensions {
			return
		}
		if _, ok := v.indices[name]; !ok {
			v.indices[name] = len(v.indices)
		}
	}
}

// Encode converts a skill score map into a normalized vector: each known
// skill's score divided by 100 at its vocabulary index. Skills that do not
// fit the vocabulary are dropped from the vector, never from the score map.
func (v *Vocabulary) Encode(scores map[string]int) []float64 {
	v.AddAll(scores)

	vector := make([]float64, v.maxDimensions)
	for name, score := range scores {
		if idx, ok := v.indices[name]; ok && idx < v.maxDimensions {
			vector[idx] = float64(score) / 100.0
		}
	}
	return vector
}

// Decode converts a normalized vector back into a skill score map using this
// vocabulary. Zero dimensions are omitted.
func (v *Vocabulary) Decode(vector []float64) map[string]int {
	reverse := make(map[int]string, len(v.indices))
	for name, idx := range v.indices {
		reverse[idx] = name
	}

	skills := make(map[string]int)
	for idx, value := range vector {
		if name, ok := reverse[idx]; ok && value > 0 {
			skills[name] = int(math.Round(value * 100))
		}
	}
	return skills
}
