// Package identity assigns and resolves the running numbers that give
// outline lines an identity independent of their position.
package identity

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/starford/nexusmap/internal/apperr"
	"github.com/starford/nexusmap/internal/outline"
	"github.com/starford/nexusmap/internal/registry"
)

// Numbering families. Each has its own numbering space.
const (
	FamilyRunningNumber = outline.MarkerRunningNumber
	FamilyExpanded      = outline.MarkerExpandedID
	FamilyFlow          = outline.MarkerFlowID
	FamilyDescription   = outline.MarkerDescription
	FamilyHubNote       = outline.MarkerHubNote
	FamilyFlowNodes     = registry.FlowNodesBlock
)

// MarkerFamilies lists the families stored as inline markers.
var MarkerFamilies = []string{
	FamilyRunningNumber, FamilyExpanded, FamilyFlow, FamilyDescription, FamilyHubNote,
}

var (
	ErrUnknownFamily = errors.New("identity: unknown family")
	ErrNotNodeLine   = errors.New("identity: line is not an outline node")
)

// EnsureRunningNumbers gives every target line a number in family. Lines
// that already carry one keep it. New numbers start after the highest
// number ever used in the family, taken once for the whole batch.
// The returned map holds the number of every target line.
func EnsureRunningNumbers(text, family string, targets []int) (string, map[int]int, error) {
	if family == FamilyFlowNodes {
		return ensureFlowNodes(text, targets)
	}
	if !IsMarkerFamily(family) {
		return text, nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}

	src, errs := outline.Scan(text)
	if len(errs) > 0 {
		return text, nil, &outline.StructuralError{Errors: errs}
	}
	targets, err := checkTargets(targets, src.IsNodeLine)
	if err != nil {
		return text, nil, err
	}

	// A corrupt counters block may hide a high-water mark above every live
	// marker.
	counters, _, err := registry.Load[registry.Counters](text, registry.CountersBlock)
	if err != nil {
		return text, nil, unreadable(err)
	}
	if counters == nil {
		counters = registry.Counters{}
	}
	next := max(counters[family], highestMarker(src, family)) + 1

	lines := src.Lines
	assigned := make(map[int]int, len(targets))
	changed := false
	for _, i := range targets {
		if n, ok := outline.ParseMarkers(lines[i]).Number(family); ok {
			assigned[i] = n
			continue
		}
		lines[i] = outline.SetMarker(lines[i], family, FormatNumber(family, next))
		assigned[i] = next
		next++
		changed = true
	}
	if !changed {
		return text, assigned, nil
	}

	counters.Bump(family, next-1)
	out, err := registry.Save(strings.Join(lines, "\n"), registry.CountersBlock, counters)
	if err != nil {
		return text, nil, err
	}
	return out, assigned, nil
}

// IsMarkerFamily reports whether family is stored as an inline marker.
func IsMarkerFamily(family string) bool {
	for _, f := range MarkerFamilies {
		if f == family {
			return true
		}
	}
	return false
}

// FormatNumber renders the marker value of number n in family.
func FormatNumber(family string, n int) string {
	if family == FamilyFlow {
		return outline.FormatFlowID(n)
	}
	return strconv.Itoa(n)
}

// NextNumber returns the number the next assignment in family would get.
func NextNumber(text, family string) int {
	src, _ := outline.Scan(text)
	counters, _, _ := registry.Load[registry.Counters](text, registry.CountersBlock)
	return max(counters[family], highestMarker(src, family)) + 1
}

func unreadable(err error) error {
	return fmt.Errorf("%w: %w", apperr.ErrInvalidDocument, err)
}

func highestMarker(src *outline.Source, family string) int {
	high := 0
	for i := 0; i < src.OutlineEnd(); i++ {
		if !src.IsNodeLine(i) {
			continue
		}
		if n, ok := outline.ParseMarkers(src.Lines[i]).Number(family); ok && n > high {
			high = n
		}
	}
	return high
}

func checkTargets(targets []int, isNode func(int) bool) ([]int, error) {
	seen := make(map[int]bool, len(targets))
	out := make([]int, 0, len(targets))
	for _, i := range targets {
		if seen[i] {
			continue
		}
		if !isNode(i) {
			return nil, fmt.Errorf("%w: %d", ErrNotNodeLine, i)
		}
		seen[i] = true
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}
