package services

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator issues chunk IDs of the form {source}-{pageIndex}-{suffix}.
//
// The suffix joins a per-generator epoch, drawn from a random UUID, with a
// monotonically increasing counter. IDs never repeat for the lifetime of a
// generator, even when the same document is ingested again.
type IDGenerator struct {
	epoch string
	seq   atomic.Uint64
}

// NewIDGenerator creates a generator with a fresh random epoch.
func NewIDGenerator() *IDGenerator {
	return NewIDGeneratorWithEpoch(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// NewIDGeneratorWithEpoch creates a generator with a fixed epoch.
func NewIDGeneratorWithEpoch(epoch string) *IDGenerator {
	return &IDGenerator{epoch: epoch}
}

// Next returns the ID for a page of a source document.
func (g *IDGenerator) Next(source string, pageIndex int) string {
	n := g.seq.Add(1)
	return fmt.Sprintf("%s-%d-%s%08x", source, pageIndex, g.epoch, n)
}

// Epoch returns the generator's epoch discriminator.
func (g *IDGenerator) Epoch() string {
	return g.epoch
}
