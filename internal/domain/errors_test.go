package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgumentError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &ArgumentError{Field: "ids", Reason: "empty"})

	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.False(t, errors.Is(err, ErrInvalidState))
	assert.Contains(t, err.Error(), "invalid argument ids: empty")
}

func TestStateError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &StateError{Op: "resume", ID: 4, Status: StatusRunning})

	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.False(t, errors.Is(err, ErrInvalidArgument))

	var stateErr *StateError
	assert.True(t, errors.As(err, &stateErr))
	assert.Equal(t, int64(4), stateErr.ID)
	assert.Contains(t, err.Error(), "cannot resume download 4: status is RUNNING")
}
