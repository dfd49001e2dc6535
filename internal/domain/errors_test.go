package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("transcript", "required")

	if got := err.Error(); got != "validation: transcript: required" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
}

func TestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := NewValidationErrors([]FieldError{
		{Field: "period_tag", Message: "invalid format"},
		{Field: "items[0].quantity_partial", Message: "must be between 0 and 1"},
	})

	if got := err.Error(); got != "validation: 2 errors" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
	if len(err.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.Errors))
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrValidation,
		ErrUnauthorized, ErrForbidden, ErrConflict,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel errors %d and %d should not match", i, j)
			}
		}
	}
}

func TestStateErrors_WrapConflict(t *testing.T) {
	t.Parallel()

	for _, err := range []error{ErrSessionFinalized, ErrInvalidTransition, ErrConcurrentUpdate} {
		wrapped := fmt.Errorf("session %s: %w", "abc", err)
		if !errors.Is(wrapped, ErrConflict) {
			t.Errorf("%v should match ErrConflict", err)
		}
		if !errors.Is(wrapped, err) {
			t.Errorf("%v should match itself through wrapping", err)
		}
	}
	if errors.Is(ErrSessionFinalized, ErrInvalidTransition) {
		t.Error("ErrSessionFinalized should not match ErrInvalidTransition")
	}
}
