package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutineStatus_Apply(t *testing.T) {
	tests := []struct {
		name    string
		from    RoutineStatus
		action  RoutineAction
		want    RoutineStatus
		wantErr bool
	}{
		{"draft activate", RoutineDraft, RoutineActionActivate, RoutineActive, false},
		{"draft cancel", RoutineDraft, RoutineActionCancel, RoutineCancelled, false},
		{"draft complete rejected", RoutineDraft, RoutineActionComplete, RoutineDraft, true},
		{"draft lock rejected", RoutineDraft, RoutineActionLock, RoutineDraft, true},
		{"active lock", RoutineActive, RoutineActionLock, RoutineLocked, false},
		{"active complete", RoutineActive, RoutineActionComplete, RoutineCompleted, false},
		{"active cancel", RoutineActive, RoutineActionCancel, RoutineCancelled, false},
		{"active activate rejected", RoutineActive, RoutineActionActivate, RoutineActive, true},
		{"locked reactivate", RoutineLocked, RoutineActionActivate, RoutineActive, false},
		{"locked cancel", RoutineLocked, RoutineActionCancel, RoutineCancelled, false},
		{"locked complete rejected", RoutineLocked, RoutineActionComplete, RoutineLocked, true},
		{"completed is terminal", RoutineCompleted, RoutineActionActivate, RoutineCompleted, true},
		{"cancelled is terminal", RoutineCancelled, RoutineActionActivate, RoutineCancelled, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Apply(tt.action)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrIllegalRoutineTransition)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoutineStatus_IsTerminal(t *testing.T) {
	assert.False(t, RoutineDraft.IsTerminal())
	assert.False(t, RoutineActive.IsTerminal())
	assert.False(t, RoutineLocked.IsTerminal())
	assert.True(t, RoutineCompleted.IsTerminal())
	assert.True(t, RoutineCancelled.IsTerminal())
}
