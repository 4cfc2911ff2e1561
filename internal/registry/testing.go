package registry

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TestingStoreBlock holds test definitions bound to flow nodes.
const TestingStoreBlock = "testing-store"

// TestCase is one test definition.
type TestCase struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	FlowRootID string `json:"flowRootId"`
	FlowNodeID string `json:"flowNodeId,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// Validate checks the test shape.
func (c TestCase) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.FlowRootID, validation.Required),
		validation.Field(&c.CreatedAt, validation.Date(time.RFC3339)),
	)
}

// TestingStore is the test registry. Ids are "test-N" and never reused: N
// is NextID or one past the highest id already stored, whichever is larger.
type TestingStore struct {
	NextID int        `json:"nextId"`
	Tests  []TestCase `json:"tests"`
}

// Add appends a test and returns it.
func (s *TestingStore) Add(name, flowRootID, flowNodeID string, now time.Time) TestCase {
	n := max(s.NextID, s.highestID()+1, 1)
	tc := TestCase{
		ID:         fmt.Sprintf("test-%d", n),
		Name:       name,
		FlowRootID: flowRootID,
		FlowNodeID: flowNodeID,
		CreatedAt:  now.UTC().Format(time.RFC3339),
	}
	s.NextID = n + 1
	s.Tests = append(s.Tests, tc)
	return tc
}

func (s *TestingStore) highestID() int {
	high := 0
	for _, tc := range s.Tests {
		rest, ok := strings.CutPrefix(tc.ID, "test-")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > high {
			high = n
		}
	}
	return high
}
