package server

import (
	"sort"
	"sync"
	"time"

	"github.com/Bitlatte/oven/internal/dirbake"
)

// OutputIndex maps output files to the source that produced them, and keeps
// when each source was last baked.
type OutputIndex struct {
	mu      sync.RWMutex
	sources map[string]string
	outputs map[string][]string
	bakedAt map[string]time.Time
}

func NewOutputIndex() *OutputIndex {
	return &OutputIndex{
		sources: make(map[string]string),
		outputs: make(map[string][]string),
		bakedAt: make(map[string]time.Time),
	}
}

// Lookup returns the source of output.
func (x *OutputIndex) Lookup(output string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	src, ok := x.sources[output]
	return src, ok
}

// LastBakeTime implements dirbake.BakeTimes.
func (x *OutputIndex) LastBakeTime(source string) (time.Time, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	t, ok := x.bakedAt[source]
	return t, ok
}

// Merge records every source of res as baked at the given time, replacing
// its previous outputs. It returns how many outputs were not indexed before.
func (x *OutputIndex) Merge(res *dirbake.Result, at time.Time) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	added := 0
	for src, outs := range res.Baked {
		for _, o := range x.outputs[src] {
			delete(x.sources, o)
		}
		for _, o := range outs {
			if _, ok := x.sources[o]; !ok {
				added++
			}
			x.sources[o] = src
		}
		x.outputs[src] = outs
		x.bakedAt[src] = at
	}
	return added
}

// RemoveSource forgets source and its outputs.
func (x *OutputIndex) RemoveSource(source string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	outs, ok := x.outputs[source]
	if !ok {
		return false
	}
	for _, o := range outs {
		delete(x.sources, o)
	}
	delete(x.outputs, source)
	delete(x.bakedAt, source)
	return true
}

func (x *OutputIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.sources)
}

// Outputs lists the indexed output paths in order.
func (x *OutputIndex) Outputs() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]string, 0, len(x.sources))
	for o := range x.sources {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}
