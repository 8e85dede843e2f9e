// Package cache provides content-addressed caching for diagram documents,
// computed layouts, and rendered artifacts.
//
// Three backends cover the deployment shapes:
//   - memory: in-process storage for development and testing
//   - file: directory-backed storage for CLI usage
//   - redis: shared storage for multi-instance server deployments
//
// Keys are produced by a Keyer so the layered caches (diagram, layout,
// artifact) stay collision-free without callers hand-building key strings.
package cache

import (
	"context"
	"time"
)

// Default TTLs per cache layer. Diagram documents change often; rendered
// artifacts are content-addressed and effectively immutable.
const (
	TTLDiagram  = 24 * time.Hour
	TTLLayout   = time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys with per-entry TTLs.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts parameterize a computed-layout cache key.
type LayoutKeyOpts struct {
	Mode string
}

// ArtifactKeyOpts parameterize a rendered-artifact cache key.
type ArtifactKeyOpts struct {
	Format string
	Theme  string
	Width  int
}

// Keyer generates cache keys for the three cache layers.
type Keyer interface {
	// DiagramKey generates a key for a stored diagram document.
	DiagramKey(id string) string

	// LayoutKey generates a key for computed positions, derived from the
	// diagram content hash and the layout mode.
	LayoutKey(diagramHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact, derived from
	// the diagram content hash and the render options.
	ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key scheme: a typed prefix plus a SHA-256
// hash of the identifying parts.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DiagramKey generates a key for a diagram document.
func (DefaultKeyer) DiagramKey(id string) string {
	return "diagram:" + id
}

// LayoutKey generates a key for computed positions.
func (DefaultKeyer) LayoutKey(diagramHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", diagramHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (DefaultKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", diagramHash, opts)
}
