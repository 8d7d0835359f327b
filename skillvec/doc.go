// Package skillvec stores and searches developer skill vectors.
//
// A skill vector maps skill names to 0-100 scores for one developer and
// repository. Vectors are persisted in SQLite; re-analyzing a repository
// merges with the stored vector using max(existing, incoming) per skill and
// unions in newly discovered skills. A bounded vocabulary assigns each skill
// a stable dimension so vectors can also be encoded as normalized float
// arrays for similarity work.
package skillvec
