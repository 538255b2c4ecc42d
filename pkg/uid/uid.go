// Package uid provides a process-unique identifier source. Identifiers are
// monotonic within the generating process and collision-free across processes
// thanks to a random per-generator prefix.
package uid

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator issues identifiers of the form "<uuid>-<sequence>". The sequence
// is strictly increasing for the lifetime of the generator.
type Generator struct {
	prefix  string
	counter atomic.Uint64
}

// NewGenerator creates a Generator with a fresh random prefix.
func NewGenerator() *Generator {
	return &Generator{prefix: uuid.NewString()}
}

// Next returns the next identifier. Safe for concurrent use.
func (g *Generator) Next() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.counter.Add(1))
}
