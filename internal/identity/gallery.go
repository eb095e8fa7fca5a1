// Package identity matches person crops against the registered-face gallery.
package identity

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"zoneguard-worker-go/internal/models"
)

// DefaultMatchThreshold is the L2 embedding distance a match must stay below.
const DefaultMatchThreshold = 0.6

// Entry is one registered person.
type Entry struct {
	Name      string                `json:"name"`
	Status    models.IdentityStatus `json:"status"`
	Source    string                `json:"source"`
	Embedding []float64             `json:"-"`
}

// Gallery holds registered embeddings. It is safe for concurrent use.
type Gallery struct {
	mu        sync.RWMutex
	threshold float64
	entries   []Entry
	names     map[string]struct{}
}

func NewGallery(threshold float64) *Gallery {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	return &Gallery{threshold: threshold, names: make(map[string]struct{})}
}

// Add registers an entry. The first entry for a name wins; later ones are ignored.
func (g *Gallery) Add(e Entry) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, dup := g.names[e.Name]; dup || len(e.Embedding) == 0 {
		return false
	}
	g.names[e.Name] = struct{}{}
	g.entries = append(g.entries, e)
	return true
}

// Len returns the number of registered people.
func (g *Gallery) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// Match returns the nearest registered person when their distance is strictly
// below the threshold, and the unknown identity otherwise.
func (g *Gallery) Match(embedding []float64) models.IdentityResult {
	g.mu.RLock()
	defer g.mu.RUnlock()

	best, bestDist := -1, math.Inf(1)
	for i, e := range g.entries {
		if len(e.Embedding) != len(embedding) {
			continue
		}
		if d := floats.Distance(e.Embedding, embedding, 2); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist >= g.threshold {
		return models.UnknownIdentity()
	}
	return models.IdentityResult{
		Name:     g.entries[best].Name,
		Status:   g.entries[best].Status,
		Distance: bestDist,
	}
}
