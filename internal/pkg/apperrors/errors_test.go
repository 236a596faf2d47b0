package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsWrapKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		code string
	}{
		{"validation", NewValidationError("bad"), ErrValidationFailed, CodeValidation},
		{"not found", NewResourceNotFoundError("missing"), ErrResourceNotFound, CodeNotFound},
		{"conflict", NewConflictError("dup"), ErrConflict, CodeConflict},
		{"forbidden", NewForbiddenError("no"), ErrPermissionDenied, CodeForbidden},
		{"state", NewStateError("illegal"), ErrInvalidState, CodeInvalidState},
		{"weight", NewIncompleteWeightError(90), ErrIncompleteWeight, CodeIncompleteWeight},
		{"scheme", NewMissingSchemeError(), ErrMissingScheme, CodeMissingScheme},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.kind))
			assert.Equal(t, tt.code, Code(wrapped))
		})
	}
}

func TestIncompleteWeightMessage(t *testing.T) {
	err := NewIncompleteWeightError(90)
	assert.Equal(t, "assessment weightages total 90%, must be exactly 100%", err.Error())
	assert.Equal(t, 90, err.Details["totalWeight"])
}

func TestIsMatchesAnyTarget(t *testing.T) {
	err := NewStateError("x")
	assert.True(t, Is(err, ErrConflict, ErrInvalidState))
	assert.False(t, Is(err, ErrConflict, ErrResourceNotFound))
	assert.Equal(t, "", Code(errors.New("plain")))
}

func TestValidationFields(t *testing.T) {
	err := NewValidationError("invalid entries", FieldError{Field: "entries[0].marksObtained", Message: "must not exceed totalMarks"})
	assert.Len(t, err.Fields, 1)
	assert.Equal(t, "invalid entries", err.Error())
}
