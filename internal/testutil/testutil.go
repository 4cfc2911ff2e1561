// Package testutil provides shared test helpers for vaults, databases and
// event capture.
package testutil

import (
	"os"
	"sync"
	"testing"

	"github.com/starford/nexusmap/internal/index"
	"github.com/starford/nexusmap/internal/models"
	"github.com/starford/nexusmap/internal/storage"
	"github.com/starford/nexusmap/internal/validate"
)

// SampleDocument is a small map with a flow, a hub and a labelled edge.
const SampleDocument = "Checkout\n" +
	"  Cart #flow#\n" +
	"    Pay #flow#\n" +
	"  Status (State=Open)\n" +
	"  Status (State=Closed)\n" +
	"---\n" +
	"```flow-connector-labels\n" +
	"{\"node-1__node-2\":{\"label\":\"submit\"}}\n" +
	"```\n"

// TestDB creates a temporary SQLite index that is cleaned up with t.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "nexusmap-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Recorder captures published document events.
type Recorder struct {
	mu      sync.Mutex
	Events  []models.DocumentEvent
	Reports []*validate.Report
}

// PublishDocumentEvent records ev and report.
func (r *Recorder) PublishDocumentEvent(ev models.DocumentEvent, report *validate.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, ev)
	r.Reports = append(r.Reports, report)
}

// Last returns the most recent event and report.
func (r *Recorder) Last() (models.DocumentEvent, *validate.Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Events) == 0 {
		return models.DocumentEvent{}, nil, false
	}
	n := len(r.Events) - 1
	return r.Events[n], r.Reports[n], true
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Events)
}
