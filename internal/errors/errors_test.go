package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := New(CategoryConfig, "baseUrl is not set")
	if got := err.Error(); got != "config: baseUrl is not set" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := Newf(CategoryBuild, "%d pages failed", 3).Wrap(errors.New("boom"))
	if got := wrapped.Error(); got != "build: 3 pages failed: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("io failure")
	err := New(CategoryConfig, "read config").Wrap(inner)

	if !errors.Is(err, inner) {
		t.Error("errors.Is does not see the wrapped error")
	}

	var structured *Error
	if !errors.As(fmt.Errorf("outer: %w", err), &structured) {
		t.Fatal("errors.As does not find *Error")
	}
	if structured.Category != CategoryConfig {
		t.Errorf("Category = %q", structured.Category)
	}
}

func TestFormatIncludesSuggestion(t *testing.T) {
	err := New(CategoryConfig, "no statica.json found").
		WithSuggestion("create statica.json at the project root")

	out := err.Format()
	if !strings.Contains(out, "hint: create statica.json") {
		t.Errorf("Format() = %q", out)
	}
}

func TestAsError(t *testing.T) {
	if _, ok := AsError(errors.New("plain")); ok {
		t.Error("AsError matched a plain error")
	}
	if _, ok := AsError(fmt.Errorf("wrap: %w", New(CategoryCLI, "x"))); !ok {
		t.Error("AsError missed a wrapped *Error")
	}
}
