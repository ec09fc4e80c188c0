package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil", err: nil, expected: http.StatusOK},
		{name: "schedule not found", err: WrapScheduleNotFound("s1"), expected: http.StatusNotFound},
		{name: "quotation not found", err: WrapQuotationNotFound("q1"), expected: http.StatusNotFound},
		{name: "already paid", err: WrapAlreadyPaid("s1"), expected: http.StatusConflict},
		{name: "conflict", err: WrapConflict("use collect"), expected: http.StatusConflict},
		{name: "cannot delete paid", err: WrapCannotDeletePaid("s1"), expected: http.StatusConflict},
		{name: "invalid input", err: WrapInvalidInput("missing contract"), expected: http.StatusBadRequest},
		{name: "storage", err: WrapDatabaseError("load schedule", errors.New("boom")), expected: http.StatusInternalServerError},
		{name: "wrapped twice", err: fmt.Errorf("outer: %w", WrapAlreadyPaid("s1")), expected: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusCode(tt.err))
		})
	}
}

func TestWrapDatabaseError(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapDatabaseError("update schedule", cause)

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to update schedule: connection reset")
	assert.Equal(t, ErrCodeDatabaseError, Code(err))
}
