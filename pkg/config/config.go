// Package config defines the engine configuration: animation timings and
// the layout constants the positioners depend on.
//
// There is no global configuration singleton. The engine receives an
// explicit Config at construction; tests build their own with New and
// functional options, so runs never share hidden mutable state.
package config

import (
	"time"

	"github.com/BurntSushi/toml"

	"github.com/flowboardhq/flowboard/pkg/errors"
)

// Easing names accepted by animation drivers.
const (
	EaseLinear    = "linear"
	EaseInOut     = "ease-in-out"
	EaseOutBounce = "ease-out-bounce"
)

// Duration is a time.Duration that decodes from TOML strings such as
// "150ms" or "2s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a standard time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Animation holds the timing parameters for staggered transitions.
type Animation struct {
	// MoveDuration is the time a single element move animates over.
	MoveDuration Duration `toml:"move_duration"`
	// StaggerDelay is the delay between successive element animations
	// within one transition.
	StaggerDelay Duration `toml:"stagger_delay"`
	// CompletionCeiling bounds every wait-for-completion helper. Past the
	// ceiling the wait resolves anyway and the stall is logged.
	CompletionCeiling Duration `toml:"completion_ceiling"`
	// Easing is the easing curve name handed to the animation driver.
	Easing string `toml:"easing"`
}

// Stack holds the task stack positioning constants.
type Stack struct {
	// Offset is the fixed vertical distance from an anchor node to its
	// slot-0 task.
	Offset float64 `toml:"offset"`
	// Gap is the minimum vertical gap between stacked tasks.
	Gap float64 `toml:"gap"`
	// DefaultTaskHeight is used when a task has no measured height yet.
	DefaultTaskHeight float64 `toml:"default_task_height"`
	// SatelliteOffset is the fixed horizontal distance from a task to its
	// next-action slot element.
	SatelliteOffset float64 `toml:"satellite_offset"`
}

// Matrix holds the Eisenhower matrix layout constants.
type Matrix struct {
	// QuadrantWidth and QuadrantHeight are the dimensions of one of the
	// four quadrant regions.
	QuadrantWidth  float64 `toml:"quadrant_width"`
	QuadrantHeight float64 `toml:"quadrant_height"`
	// Padding is the inset from a quadrant's top-left corner to the first
	// card.
	Padding float64 `toml:"padding"`
	// CardWidth and CardHeight are the task card dimensions inside a
	// quadrant.
	CardWidth  float64 `toml:"card_width"`
	CardHeight float64 `toml:"card_height"`
	// Columns is the number of grid columns per quadrant.
	Columns int `toml:"columns"`
	// CellGap is the spacing between grid cells.
	CellGap float64 `toml:"cell_gap"`
}

// Flow holds the flowline routing constants.
type Flow struct {
	// CornerRadius is the rounded-corner radius for perpendicular paths.
	CornerRadius float64 `toml:"corner_radius"`
	// Curvature is the vertical control-point offset for curved paths.
	// Negative values bias the curve upward.
	Curvature float64 `toml:"curvature"`
	// StepSize is the nominal length of one stepped-path segment.
	StepSize float64 `toml:"step_size"`
	// StepJitter is the lateral offset applied to alternating steps.
	StepJitter float64 `toml:"step_jitter"`
}

// Config is the full engine configuration.
type Config struct {
	Animation Animation `toml:"animation"`
	Stack     Stack     `toml:"stack"`
	Matrix    Matrix    `toml:"matrix"`
	Flow      Flow      `toml:"flow"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Animation: Animation{
			MoveDuration:      Duration(300 * time.Millisecond),
			StaggerDelay:      Duration(40 * time.Millisecond),
			CompletionCeiling: Duration(5 * time.Second),
			Easing:            EaseInOut,
		},
		Stack: Stack{
			Offset:            80,
			Gap:               10,
			DefaultTaskHeight: 40,
			SatelliteOffset:   180,
		},
		Matrix: Matrix{
			QuadrantWidth:  460,
			QuadrantHeight: 340,
			Padding:        24,
			CardWidth:      200,
			CardHeight:     56,
			Columns:        2,
			CellGap:        12,
		},
		Flow: Flow{
			CornerRadius: 12,
			Curvature:    -40,
			StepSize:     24,
			StepJitter:   4,
		},
	}
}

// Option overrides part of a Config.
type Option func(*Config)

// WithAnimation replaces the animation timing block.
func WithAnimation(a Animation) Option { return func(c *Config) { c.Animation = a } }

// WithStack replaces the stack positioning block.
func WithStack(s Stack) Option { return func(c *Config) { c.Stack = s } }

// WithMatrix replaces the matrix layout block.
func WithMatrix(m Matrix) Option { return func(c *Config) { c.Matrix = m } }

// WithFlow replaces the flowline routing block.
func WithFlow(f Flow) Option { return func(c *Config) { c.Flow = f } }

// New builds a Config from the defaults with the given overrides applied.
func New(opts ...Option) Config {
	c := Default()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Load reads a TOML configuration file on top of the defaults. Missing
// keys keep their default values.
func Load(path string) (Config, error) {
	c := Default()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "load config %s", path)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the configuration for values the layout math cannot
// work with.
func (c Config) Validate() error {
	if c.Stack.DefaultTaskHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "stack.default_task_height must be positive")
	}
	if c.Matrix.Columns <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "matrix.columns must be positive")
	}
	if c.Matrix.CardWidth <= 0 || c.Matrix.CardHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "matrix card dimensions must be positive")
	}
	if c.Flow.StepSize <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "flow.step_size must be positive")
	}
	if c.Animation.CompletionCeiling <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "animation.completion_ceiling must be positive")
	}
	return nil
}
