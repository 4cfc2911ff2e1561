package outline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var conditionSuffixRe = regexp.MustCompile(`^(.*?)\s*\(([^()]*)\)\s*$`)

// SplitConditions separates a trailing "(k=v, k2=v2)" suffix from content.
// ok is false when content has no well-formed condition suffix.
func SplitConditions(content string) (title string, conds map[string]string, ok bool) {
	m := conditionSuffixRe.FindStringSubmatch(content)
	if m == nil || strings.TrimSpace(m[2]) == "" {
		return content, nil, false
	}
	conds = make(map[string]string)
	for _, part := range strings.Split(m[2], ",") {
		k, v, found := strings.Cut(part, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !found || k == "" || v == "" {
			return content, nil, false
		}
		conds[k] = v
	}
	return strings.TrimSpace(m[1]), conds, true
}

// Condition is one key=value pair.
type Condition struct {
	Key   string
	Value string
}

// ConditionSet is a validated condition map with keys in sorted order.
type ConditionSet struct {
	pairs []Condition
}

// NewConditionSet validates and normalises a raw condition map.
func NewConditionSet(raw map[string]string) (ConditionSet, error) {
	pairs := make([]Condition, 0, len(raw))
	for k, v := range raw {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			return ConditionSet{}, fmt.Errorf("outline: empty condition key or value in %v", raw)
		}
		pairs = append(pairs, Condition{Key: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	for i := 1; i < len(pairs); i++ {
		if pairs[i].Key == pairs[i-1].Key {
			return ConditionSet{}, fmt.Errorf("outline: duplicate condition key %q", pairs[i].Key)
		}
	}
	return ConditionSet{pairs: pairs}, nil
}

// Len returns the number of conditions.
func (c ConditionSet) Len() int { return len(c.pairs) }

// Keys returns the sorted condition keys.
func (c ConditionSet) Keys() []string {
	out := make([]string, len(c.pairs))
	for i, p := range c.pairs {
		out[i] = p.Key
	}
	return out
}

// KeySignature identifies the key set.
func (c ConditionSet) KeySignature() string {
	return strings.Join(c.Keys(), "\x00")
}

// ValueSignature identifies the full key=value assignment.
func (c ConditionSet) ValueSignature() string {
	parts := make([]string, len(c.pairs))
	for i, p := range c.pairs {
		parts[i] = p.Key + "=" + p.Value
	}
	return strings.Join(parts, "\x00")
}

// Map returns a copy of the conditions as a plain map.
func (c ConditionSet) Map() map[string]string {
	out := make(map[string]string, len(c.pairs))
	for _, p := range c.pairs {
		out[p.Key] = p.Value
	}
	return out
}

func (c ConditionSet) String() string {
	parts := make([]string, len(c.pairs))
	for i, p := range c.pairs {
		parts[i] = p.Key + "=" + p.Value
	}
	return strings.Join(parts, ", ")
}
