package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "WithoutCause",
			err:  New(ErrCodeDuplicateFlowline, "flowline a -> b exists"),
			want: "DUPLICATE_FLOWLINE: flowline a -> b exists",
		},
		{
			name: "WithCause",
			err:  Wrap(ErrCodeStorage, stderrors.New("connection refused"), "load diagram d1"),
			want: "STORAGE_ERROR: load diagram d1: connection refused",
		},
		{
			name: "FormattedMessage",
			err:  New(ErrCodeNodeNotFound, "node %q not found", "n42"),
			want: `NODE_NOT_FOUND: node "n42" not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeOrphanTask, "node has 3 attached tasks")

	if !Is(err, ErrCodeOrphanTask) {
		t.Error("Is() = false for matching code")
	}
	if Is(err, ErrCodeNotFound) {
		t.Error("Is() = true for non-matching code")
	}
	if Is(stderrors.New("plain"), ErrCodeOrphanTask) {
		t.Error("Is() = true for non-structured error")
	}

	// Code must survive wrapping with fmt.Errorf.
	wrapped := fmt.Errorf("delete node: %w", err)
	if !Is(wrapped, ErrCodeOrphanTask) {
		t.Error("Is() = false for fmt-wrapped error")
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(ErrCodeInternal, cause, "wrapped")

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeReentrantTransition, "busy")); got != ErrCodeReentrantTransition {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeReentrantTransition)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode() = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeCannotDeleteStart, "the start node cannot be deleted")); got != "the start node cannot be deleted" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(stderrors.New("plain failure")); got != "plain failure" {
		t.Errorf("UserMessage() = %q", got)
	}
}
