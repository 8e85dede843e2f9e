package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowboardhq/flowboard/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestNewWithOverrides(t *testing.T) {
	c := New(WithStack(Stack{
		Offset:            100,
		Gap:               5,
		DefaultTaskHeight: 30,
		SatelliteOffset:   150,
	}))

	if c.Stack.Offset != 100 {
		t.Errorf("Stack.Offset = %v, want 100", c.Stack.Offset)
	}
	// Untouched blocks keep defaults.
	if c.Flow.StepSize != Default().Flow.StepSize {
		t.Errorf("Flow.StepSize = %v, want default %v", c.Flow.StepSize, Default().Flow.StepSize)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowboard.toml")
	content := `
[animation]
move_duration = "150ms"
easing = "linear"

[stack]
offset = 64.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Animation.MoveDuration.Std() != 150*time.Millisecond {
		t.Errorf("MoveDuration = %v, want 150ms", c.Animation.MoveDuration)
	}
	if c.Animation.Easing != EaseLinear {
		t.Errorf("Easing = %q, want linear", c.Animation.Easing)
	}
	if c.Stack.Offset != 64 {
		t.Errorf("Stack.Offset = %v, want 64", c.Stack.Offset)
	}
	// Keys absent from the file keep defaults.
	if c.Stack.Gap != Default().Stack.Gap {
		t.Errorf("Stack.Gap = %v, want default %v", c.Stack.Gap, Default().Stack.Gap)
	}
}

func TestLoadRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("[stack\noffset="), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Fatalf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestValidateRejectsZeroes(t *testing.T) {
	c := Default()
	c.Matrix.Columns = 0
	if err := c.Validate(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
}
