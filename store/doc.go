// Package store provides the type-aware key-value store backing one pipeline
// run.
//
// A KVStore is the shared scratchpad stages read from and write to: values
// keep their concrete Go type, retrieval is generic and type-checked, and the
// stored type of any key can be introspected as a JSON schema. Stores are
// never shared across runs; within a run the pipeline guarantees a single
// writer at a time, so the store only carries the exclusive-access guard
// needed for a multi-threaded runtime.
package store
