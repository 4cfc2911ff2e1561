package registry

import "strconv"

// Note block names keyed by desc / hubnote running numbers.
const (
	ConditionDescriptionsBlock = "condition-descriptions"
	HubNotesBlock              = "hub-notes"
)

// Notes maps a running number, as a decimal string, to free text.
type Notes map[string]string

// Get returns the note for running number num.
func (n Notes) Get(num int) (string, bool) {
	s, ok := n[strconv.Itoa(num)]
	return s, ok
}

// Set stores the note for running number num.
func (n Notes) Set(num int, text string) {
	n[strconv.Itoa(num)] = text
}

// Delete removes the note for running number num.
func (n Notes) Delete(num int) {
	delete(n, strconv.Itoa(num))
}
