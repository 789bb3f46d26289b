package slot

import (
	"fmt"
	"sort"
	"time"

	"github.com/jwalitptl/citizen-api/internal/model"
)

// Grid is the static, ordered list of daily slot start times. It is
// configuration, not derived from officer working hours.
type Grid struct {
	starts   []string
	index    map[string]struct{}
	duration time.Duration
}

func NewGrid(starts []string, slotMinutes int) (*Grid, error) {
	if slotMinutes <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %d minutes", slotMinutes)
	}
	if len(starts) == 0 {
		return nil, fmt.Errorf("slot grid is empty")
	}

	g := &Grid{
		index:    make(map[string]struct{}, len(starts)),
		duration: time.Duration(slotMinutes) * time.Minute,
	}
	for _, s := range starts {
		t, err := time.Parse(model.ClockLayout, s)
		if err != nil {
			return nil, fmt.Errorf("invalid slot start %q: %w", s, err)
		}
		if t.Add(g.duration).Day() != t.Day() {
			return nil, fmt.Errorf("slot starting %s runs past midnight", s)
		}
		canonical := t.Format(model.ClockLayout)
		if _, dup := g.index[canonical]; dup {
			continue
		}
		g.index[canonical] = struct{}{}
		g.starts = append(g.starts, canonical)
	}
	sort.Strings(g.starts)
	return g, nil
}

// Starts returns a copy of the grid in time order.
func (g *Grid) Starts() []string {
	out := make([]string, len(g.starts))
	copy(out, g.starts)
	return out
}

func (g *Grid) Contains(start string) bool {
	_, ok := g.index[start]
	return ok
}

func (g *Grid) Duration() time.Duration {
	return g.duration
}

// EndOf derives the end time of a slot. End times are never caller supplied.
func (g *Grid) EndOf(start string) (string, error) {
	t, err := time.Parse(model.ClockLayout, start)
	if err != nil {
		return "", fmt.Errorf("invalid start time %q: %w", start, err)
	}
	return t.Add(g.duration).Format(model.ClockLayout), nil
}
