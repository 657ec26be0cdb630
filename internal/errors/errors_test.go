package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_ErrorString(t *testing.T) {
	err := New(ErrTypeValidation, "unknown table custmers")

	want := "validation: unknown table custmers"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := Wrap(fmt.Errorf("syntax error near FROM"), ErrTypeValidation, "parse failed")
	if wrapped.Error() != "validation: parse failed (caused by: syntax error near FROM)" {
		t.Errorf("unexpected wrapped message: %q", wrapped.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrTypeExecution, "query failed")

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestIsType(t *testing.T) {
	err := New(ErrTypeApprovalRejected, "rejected by user")

	if !IsType(err, ErrTypeApprovalRejected) {
		t.Error("IsType should match the error's own type")
	}

	if IsType(err, ErrTypeExecution) {
		t.Error("IsType should not match a different type")
	}

	if IsType(errors.New("plain"), ErrTypeExecution) {
		t.Error("IsType should not match plain errors")
	}
}

func TestGetType(t *testing.T) {
	if got := GetType(Newf(ErrTypeDryRun, "estimate failed for %s", "orders")); got != ErrTypeDryRun {
		t.Errorf("GetType = %q, want dry_run", got)
	}

	if got := GetType(errors.New("plain")); got != ErrTypeInternal {
		t.Errorf("GetType(plain) = %q, want internal", got)
	}

	// Wrapped structured errors keep their type through fmt wrapping.
	inner := New(ErrTypeConnectionNotFound, "no connection for analytics")
	outer := fmt.Errorf("statement 2: %w", inner)

	if got := GetType(outer); got != ErrTypeConnectionNotFound {
		t.Errorf("GetType(wrapped) = %q, want connection_not_found", got)
	}
}

func TestWithSuggestion(t *testing.T) {
	err := New(ErrTypeConfig, "no databases configured").
		WithSuggestion("add a [databases] entry to the config file")

	if len(err.Suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(err.Suggestions))
	}
}
