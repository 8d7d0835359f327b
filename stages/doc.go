// Package stages provides the built-in pipeline stages that turn a GitHub
// repository into a persisted developer skill vector: fetching and analyzing
// repository material, structuring the free-form analysis, rendering a
// human-readable summary, and persisting the result.
package stages
