package registry

// CountersBlock records per-family high-water marks so deleted running
// numbers are never handed out again.
const CountersBlock = "running-numbers"

// Counters maps a marker family to the highest number ever assigned.
type Counters map[string]int

// Bump raises the high-water mark of family to n.
func (c Counters) Bump(family string, n int) {
	if n > c[family] {
		c[family] = n
	}
}
