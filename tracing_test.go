package devindex

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, recorder
}

func spanByName(spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func TestTracingRecordsRunAndStageSpans(t *testing.T) {
	tp, recorder := newRecordingProvider(t)

	p := New("traced", WithTracerProvider(tp))
	p.AddStage(NewFuncStage("alpha", nil, nil, func(rc *RunContext) error { return nil }))
	p.AddStage(NewFuncStage("beta", nil, nil, func(rc *RunContext) error { return nil }))

	result := p.Run(context.Background(), nil, nil)
	require.Equal(t, StateCompleted, result.State)

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	run := spanByName(spans, "pipeline.run")
	require.NotNil(t, run)
	assert.Equal(t, codes.Ok, run.Status().Code)

	// Both stage spans are children of the run span
	var stageCount int
	for _, s := range spans {
		if s.Name() != "pipeline.stage" {
			continue
		}
		stageCount++
		assert.Equal(t, run.SpanContext().SpanID(), s.Parent().SpanID())
	}
	assert.Equal(t, 2, stageCount)
}

func TestTracingRecordsFailure(t *testing.T) {
	tp, recorder := newRecordingProvider(t)
	boom := errors.New("boom")

	p := New("traced", WithTracerProvider(tp))
	p.AddStage(NewFuncStage("broken", nil, nil, func(rc *RunContext) error { return boom }))

	result := p.Run(context.Background(), nil, nil)
	require.Equal(t, StateHaltedOnFailure, result.State)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	stage := spanByName(spans, "pipeline.stage")
	require.NotNil(t, stage)
	assert.Equal(t, codes.Error, stage.Status().Code)
	require.Len(t, stage.Events(), 1)
	assert.Equal(t, "exception", stage.Events()[0].Name)

	run := spanByName(spans, "pipeline.run")
	require.NotNil(t, run)
	assert.Equal(t, codes.Error, run.Status().Code)
}
