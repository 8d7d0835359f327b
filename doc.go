// Package devindex provides a staged analysis pipeline orchestrator.
//
// devindex runs multi-step analysis agents as linear pipelines of stages. Each
// stage declares the state keys it requires and the keys it promises to
// produce; the pipeline validates those contracts before running, drives each
// stage's event stream to exhaustion, and halts with a distinct terminal state
// when a stage fails or breaks its output contract.
//
// Core components include:
//   - Pipeline: the orchestrator owning the run context and the halt decision
//   - Stages: sequential units of work with declared key contracts
//   - State Store: a type-safe key-value store shared within one run
//   - Event Channel: an ordered, single-consumer stream of progress events
//
// Key guarantees include strict sequential execution, static precondition
// checks, post-stage output verification, ordered event relay, and terminal
// halting with no silent recovery.
package devindex
