package skillvec

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no record matches the requested identity.
var ErrNotFound = errors.New("skill vector not found")

// Record is one persisted skill vector row.
type Record struct {
	ID        string
	Username  string
	RepoName  string
	Skills    map[string]int
	Vector    []float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists skill vectors in SQLite. It applies the merge policy on
// save: for each skill, new score = max(existing, incoming); new skills are
// unioned in. Safe for use from a single writer, matching the pipeline's
// post-run persistence hook.
type Store struct {
	db    *sql.DB
	vocab *Vocabulary
}

const schema = `
CREATE TABLE IF NOT EXISTS developer_skills (
	id           TEXT PRIMARY KEY,
	username     TEXT NOT NULL,
	repo_name    TEXT NOT NULL,
	skill_json   TEXT NOT NULL,
	skill_vector TEXT,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_username ON developer_skills(username);
CREATE INDEX IF NOT EXISTS idx_username_repo ON developer_skills(username, repo_name);
`

// Open opens (or creates) the skill vector database at path. Use ":memory:"
// for an ephemeral store. The skill vocabulary is rebuilt from existing
// records so vector dimensions stay stable across runs.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// modernc's driver is happiest with a single connection, and the store
	// has a single writer anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{db: db, vocab: NewVocabulary(DefaultDimensions)}
	if err := s.loadVocabulary(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// loadVocabulary seeds the vocabulary from every stored skill_json so encoded
// vectors keep their dimension assignments.
func (s *Store) loadVocabulary(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT skill_json FROM developer_skills`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var scoreMaps []map[string]int
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		var skills map[string]int
		if err := json.Unmarshal([]byte(raw), &skills); err != nil {
			continue // tolerate malformed historical rows
		}
		scoreMaps = append(scoreMaps, skills)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.vocab.AddAll(scoreMaps...)
	return nil
}

// SaveOrUpdate persists the skill scores for (username, repo). When a record
// already exists its scores are merged with the incoming ones under the
// max-score policy; otherwise a new record is created. The saved record is
// returned.
func (s *Store) SaveOrUpdate(ctx context.Context, username, repo string, skills map[string]int) (*Record, error) {
	if len(skills) == 0 {
		return nil, fmt.Errorf("empty skills for %s/%s", username, repo)
	}

	existing, err := s.Get(ctx, username, repo)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	merged := skills
	if existing != nil {
		merged = Merge(existing.Skills, skills)
	}

	skillJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode skills: %w", err)
	}

	vector := s.vocab.Encode(merged)
	vectorJSON, err := json.Marshal(vector)
	if err != nil {
		return nil, fmt.Errorf("encode vector: %w", err)
	}

	now := time.Now().UTC()

	if existing != nil {
		_, err = s.db.ExecContext(ctx,
			`UPDATE developer_skills SET skill_json = ?, skill_vector = ?, updated_at = ? WHERE id = ?`,
			string(skillJSON), string(vectorJSON), now, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("update record: %w", err)
		}
		existing.Skills = merged
		existing.Vector = vector
		existing.UpdatedAt = now
		return existing, nil
	}

	rec := &Record{
		ID:        uuid.NewString(),
		Username:  username,
		RepoName:  repo,
		Skills:    merged,
		Vector:    vector,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO developer_skills (id, username, repo_name, skill_json, skill_vector, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Username, rec.RepoName, string(skillJSON), string(vectorJSON), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}

	return rec, nil
}

// Get returns the record for (username, repo), or ErrNotFound.
func (s *Store) Get(ctx context.Context, username, repo string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, repo_name, skill_json, skill_vector, created_at, updated_at
		 FROM developer_skills WHERE username = ? AND repo_name = ? LIMIT 1`,
		username, repo)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// ReposForUser returns every stored record for the given username.
func (s *Store) ReposForUser(ctx context.Context, username string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, repo_name, skill_json, skill_vector, created_at, updated_at
		 FROM developer_skills WHERE username = ? ORDER BY repo_name`,
		username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRecords(rows)
}

// SearchBySkills returns records whose stored scores meet every minimum in
// filters, e.g. {"react": 50, "javascript": 40}. Results are capped at limit.
func (s *Store) SearchBySkills(ctx context.Context, filters map[string]int, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, repo_name, skill_json, skill_vector, created_at, updated_at
		 FROM developer_skills ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	all, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}

	var out []Record
	for _, rec := range all {
		if matchesFilters(rec.Skills, filters) {
			out = append(out, rec)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// Match pairs a record with its similarity to a query vector.
type Match struct {
	Record
	Similarity float64
}

// QueryVector encodes a skill score map into a query vector using the
// store's vocabulary, so it is dimension-aligned with every stored vector.
func (s *Store) QueryVector(scores map[string]int) []float64 {
	return s.vocab.Encode(scores)
}

// SearchByVector returns records whose stored vectors have cosine similarity
// to query of at least threshold, most similar first. Records persisted
// without a vector are skipped. Limit defaults to 10.
func (s *Store) SearchByVector(ctx context.Context, query []float64, limit int, threshold float64) ([]Match, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, repo_name, skill_json, skill_vector, created_at, updated_at
		 FROM developer_skills`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	all, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, rec := range all {
		if len(rec.Vector) == 0 {
			continue
		}
		sim := CosineSimilarity(query, rec.Vector)
		if sim >= threshold {
			matches = append(matches, Match{Record: rec, Similarity: sim})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		if matches[i].Username != matches[j].Username {
			return matches[i].Username < matches[j].Username
		}
		return matches[i].RepoName < matches[j].RepoName
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// AllDevelopers returns every stored record up to limit, which defaults
// to 100.
func (s *Store) AllDevelopers(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, repo_name, skill_json, skill_vector, created_at, updated_at
		 FROM developer_skills ORDER BY username, repo_name LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRecords(rows)
}

func matchesFilters(skills map[string]int, filters map[string]int) bool {
	for name, min := range filters {
		if skills[name] < min {
			return false
		}
	}
	return true
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var skillJSON string
	var vectorJSON sql.NullString

	err := row.Scan(&rec.ID, &rec.Username, &rec.RepoName, &skillJSON, &vectorJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(skillJSON), &rec.Skills); err != nil {
		return nil, fmt.Errorf("decode skills for %s: %w", rec.ID, err)
	}
	if vectorJSON.Valid && vectorJSON.String != "" {
		if err := json.Unmarshal([]byte(vectorJSON.String), &rec.Vector); err != nil {
			return nil, fmt.Errorf("decode vector for %s: %w", rec.ID, err)
		}
	}

	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}
