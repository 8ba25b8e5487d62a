package bake

import (
	"fmt"
	"time"
)

// Listing is one taxonomy page baked during a pass.
type Listing struct {
	Type    string
	BlogKey string
	Key     string
	Posts   int
}

// Summary describes a finished bake pass.
type Summary struct {
	// Baked maps each rendered or copied source to the files it produced.
	Baked    map[string][]string
	Listings []Listing
	Skipped  int
	Errors   int
	Elapsed  time.Duration
}

func newSummary() *Summary {
	return &Summary{Baked: make(map[string][]string)}
}

func (s *Summary) add(src string, outs ...string) {
	s.Baked[src] = append(s.Baked[src], outs...)
}

// WasBaked reports whether src produced output during the pass.
func (s *Summary) WasBaked(src string) bool {
	_, ok := s.Baked[src]
	return ok
}

func formatTimed(start, end time.Time, msg string) string {
	return fmt.Sprintf("[%8.1f ms] %s", float64(end.Sub(start).Microseconds())/1000.0, msg)
}
