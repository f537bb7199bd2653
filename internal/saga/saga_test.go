package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	calls []string
}

func (r *recorder) step(name string, doErr, undoErr error) Step {
	return Step{
		Name: name,
		Do: func(ctx context.Context) error {
			r.calls = append(r.calls, "do:"+name)
			return doErr
		},
		Undo: func(ctx context.Context) error {
			r.calls = append(r.calls, "undo:"+name)
			return undoErr
		},
	}
}

func TestRun_AllStepsComplete(t *testing.T) {
	rec := &recorder{}
	s := New("quick_sale", zap.NewNop(), rec.step("a", nil, nil), rec.step("b", nil, nil))

	log, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"do:a", "do:b"}, rec.calls)
	assert.Equal(t, []Marker{{Step: "a", Status: StepCompleted}, {Step: "b", Status: StepCompleted}}, log)
}

func TestRun_CompensatesInReverse(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("stock update failed")
	s := New("quick_sale", zap.NewNop(),
		rec.step("a", nil, nil),
		rec.step("b", nil, nil),
		rec.step("c", boom, nil),
	)

	log, err := s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var sagaErr *Error
	require.ErrorAs(t, err, &sagaErr)
	assert.Equal(t, "c", sagaErr.Step)
	assert.True(t, sagaErr.Intact)
	assert.Equal(t, []string{"do:a", "do:b", "do:c", "undo:b", "undo:a"}, rec.calls)
	assert.Equal(t, []Marker{
		{Step: "a", Status: StepCompleted},
		{Step: "b", Status: StepCompleted},
		{Step: "c", Status: StepFailed, Err: "stock update failed"},
		{Step: "b", Status: StepCompensated},
		{Step: "a", Status: StepCompensated},
	}, log)
}

func TestRun_UndoFailureIsRecorded(t *testing.T) {
	rec := &recorder{}
	s := New("quick_sale", zap.NewNop(),
		rec.step("a", nil, errors.New("delete failed")),
		rec.step("b", errors.New("boom"), nil),
	)

	_, err := s.Run(context.Background())
	var sagaErr *Error
	require.ErrorAs(t, err, &sagaErr)
	assert.False(t, sagaErr.Intact)
	assert.Equal(t, StepUndoFailed, sagaErr.Log[len(sagaErr.Log)-1].Status)
}

func TestRun_FirstStepFailureHasNothingToUndo(t *testing.T) {
	rec := &recorder{}
	s := New("quick_sale", zap.NewNop(), rec.step("a", errors.New("boom"), nil), rec.step("b", nil, nil))

	log, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"do:a"}, rec.calls)
	assert.Len(t, log, 1)
}
