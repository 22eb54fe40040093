package viewmodel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"
)

var ErrUnknownLayout = errors.New("unknown layout")

// Layout is a camera grid shape. Size 0 means "show every roster camera".
type Layout struct {
	Name string
	Size int
}

var (
	LayoutAll = Layout{Name: "all"}
	Layout2x2 = Layout{Name: "2x2", Size: 4}
	Layout3x2 = Layout{Name: "3x2", Size: 6}
	Layout3x3 = Layout{Name: "3x3", Size: 9}
	Layout4x4 = Layout{Name: "4x4", Size: 16}
)

var layouts = map[string]Layout{
	LayoutAll.Name: LayoutAll,
	Layout2x2.Name: Layout2x2,
	Layout3x2.Name: Layout3x2,
	Layout3x3.Name: Layout3x3,
	Layout4x4.Name: Layout4x4,
}

// ParseLayout accepts "", "all", "2x2", "3x2", "3x3" and "4x4" (case-insensitive).
func ParseLayout(s string) (Layout, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LayoutAll, nil
	}
	l, ok := layouts[s]
	if !ok {
		return Layout{}, fmt.Errorf("%w %q: want one of all, 2x2, 3x2, 3x3, 4x4", ErrUnknownLayout, s)
	}
	return l, nil
}

// Apply keeps the first Size entries in roster order.
func (l Layout) Apply(entries []camera.ViewEntry) []camera.ViewEntry {
	if l.Size <= 0 || len(entries) <= l.Size {
		return entries
	}
	return entries[:l.Size]
}

func (l Layout) String() string { return l.Name }
