package playlist

import (
	"fmt"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/desertthunder/vibelist/internal/shared"
)

// IDGenerator derives a playlist-unique entry id from a source id.
type IDGenerator interface {
	NextID(base string) string
}

// Counter suffixes ids with a monotonic sequence number. Safe for concurrent use.
type Counter struct {
	n atomic.Uint64
}

// NewCounter returns a [Counter] whose first id uses start+1.
func NewCounter(start uint64) *Counter {
	c := &Counter{}
	c.n.Store(start)
	return c
}

func (c *Counter) NextID(base string) string {
	return fmt.Sprintf("%s-%d", base, c.n.Add(1))
}

// UUIDs suffixes ids with a random v4 uuid.
type UUIDs struct{}

func (UUIDs) NextID(base string) string {
	return base + "-" + shared.GenerateID()
}

// NewIDGenerator returns the generator named by strategy ("uuid" or "counter").
func NewIDGenerator(strategy string) IDGenerator {
	if strings.EqualFold(strategy, "uuid") {
		return UUIDs{}
	}
	return NewCounter(0)
}

// Slug lower-cases s and replaces runs of non-alphanumerics with a single dash.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
