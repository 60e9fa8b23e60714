package routing

import (
	"sync/atomic"

	"github.com/meikuraledutech/campusnav/geoindex"
	"github.com/meikuraledutech/campusnav/graph"
)

// snapshot is a built graph tagged with the store version it was built from.
// Snapshots are never mutated once published.
type snapshot struct {
	version int64
	graph   *graph.Graph
	index   *geoindex.Index
	report  graph.BuildReport
}

// GraphCache holds the latest built graph per variant. Readers load a
// snapshot pointer; rebuilds publish a new snapshot with an atomic swap, so a
// request never sees a graph under construction.
type GraphCache struct {
	// variants[0] holds all paths, variants[1] accessible paths only.
	variants [2]atomic.Pointer[snapshot]
}

// NewGraphCache returns an empty cache.
func NewGraphCache() *GraphCache {
	return &GraphCache{}
}

func variant(accessibleOnly bool) int {
	if accessibleOnly {
		return 1
	}
	return 0
}

// get returns the snapshot for the variant if it was built at version.
func (c *GraphCache) get(accessibleOnly bool, version int64) *snapshot {
	s := c.variants[variant(accessibleOnly)].Load()
	if s == nil || s.version != version {
		return nil
	}
	return s
}

// put publishes s unless a snapshot of a newer version is already there.
func (c *GraphCache) put(accessibleOnly bool, s *snapshot) {
	slot := &c.variants[variant(accessibleOnly)]
	for {
		cur := slot.Load()
		if cur != nil && cur.version > s.version {
			return
		}
		if slot.CompareAndSwap(cur, s) {
			return
		}
	}
}

// Invalidate drops every cached snapshot.
func (c *GraphCache) Invalidate() {
	for i := range c.variants {
		c.variants[i].Store(nil)
	}
}
