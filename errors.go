package devindex

import (
	"fmt"
	"strings"
)

// PrecheckError reports a configuration error: a stage's required keys cannot
// be satisfied by the initial store plus the outputs of earlier stages. It is
// detected before any stage executes.
type PrecheckError struct {
	Pipeline string
	Stage    string
	Missing  []string
}

func (e *PrecheckError) Error() string {
	return fmt.Sprintf("pipeline '%s': stage '%s' requires unsatisfiable key(s): %s",
		e.Pipeline, e.Stage, strings.Join(e.Missing, ", "))
}

// StageError reports a fatal failure raised by a stage during execution.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage '%s' failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// MissingOutputError reports that a stage completed without error but did not
// write one or more of its promised output keys.
type MissingOutputError struct {
	Stage   string
	Missing []string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("stage '%s' produced incomplete output, missing key(s): %s",
		e.Stage, strings.Join(e.Missing, ", "))
}
