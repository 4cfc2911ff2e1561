// Package docservice coordinates the vault, the index and the engine: it is
// the single writer of documents for the API and MCP surfaces.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/starford/nexusmap/internal/apperr"
	"github.com/starford/nexusmap/internal/checksum"
	"github.com/starford/nexusmap/internal/engine"
	"github.com/starford/nexusmap/internal/index"
	"github.com/starford/nexusmap/internal/layout"
	"github.com/starford/nexusmap/internal/models"
	"github.com/starford/nexusmap/internal/outline"
	"github.com/starford/nexusmap/internal/registry"
	"github.com/starford/nexusmap/internal/storage"
	"github.com/starford/nexusmap/internal/validate"
)

// Publisher receives document change notifications.
type Publisher interface {
	PublishDocumentEvent(ev models.DocumentEvent, report *validate.Report)
}

// DocumentDetail is the full representation of a document.
type DocumentDetail struct {
	Path      string           `json:"path"`
	Kind      string           `json:"kind"`
	Content   string           `json:"content"`
	Checksum  string           `json:"checksum"`
	Summary   validate.Summary `json:"summary"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// DocumentListItem is a lightweight item in a list response.
type DocumentListItem struct {
	Path      string    `json:"path"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Nodes     int       `json:"nodes"`
	FlowNodes int       `json:"flowNodes"`
	Errors    int       `json:"errors"`
	Warnings  int       `json:"warnings"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MutationResult reports the outcome of one applied mutation.
type MutationResult struct {
	Path     string `json:"path"`
	Changed  bool   `json:"changed"`
	Checksum string `json:"checksum"`
	Revision string `json:"revision,omitempty"`
	Result   any    `json:"result,omitempty"`
}

// Service implements document operations over storage, index and engine.
type Service struct {
	store     storage.Provider
	db        index.DocumentIndex
	engine    *engine.Engine
	rules     validate.Options
	publisher Publisher
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithRules sets the tag policies applied when validating.
func WithRules(rules validate.Options) Option {
	return func(s *Service) { s.rules = rules }
}

// WithPublisher sets the receiver of change notifications.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a document service.
func NewService(store storage.Provider, db index.DocumentIndex, eng *engine.Engine, opts ...Option) *Service {
	s := &Service{
		store:  store,
		db:     db,
		engine: eng,
		logger: slog.Default(),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the validation policies in effect.
func (s *Service) Rules() validate.Options { return s.rules }

// lock serialises writers of one document.
func (s *Service) lock(path string) func() {
	s.mu.Lock()
	m, ok := s.locks[path]
	if !ok {
		m = &sync.Mutex{}
		s.locks[path] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.ErrNotFound
	}
	return data, err
}

func (s *Service) publish(kind, path, revision string, report *validate.Report) {
	if s.publisher != nil {
		s.publisher.PublishDocumentEvent(models.DocumentEvent{Kind: kind, Path: path, Revision: revision}, report)
	}
}

// Get returns a document with its validation summary.
func (s *Service) Get(_ context.Context, path string) (*DocumentDetail, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return s.detail(path, data, validate.Document(string(data), s.rules)), nil
}

// Create writes a new document and indexes it.
func (s *Service) Create(_ context.Context, path string, content []byte) (*DocumentDetail, error) {
	unlock := s.lock(path)
	defer unlock()

	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	return s.write(path, content, models.EventCreated, "")
}

// Update replaces a document. A non-empty ifMatch must equal the current
// checksum.
func (s *Service) Update(_ context.Context, path string, content []byte, ifMatch string) (*DocumentDetail, error) {
	unlock := s.lock(path)
	defer unlock()

	existing, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	return s.write(path, content, models.EventUpdated, "")
}

func (s *Service) write(path string, content []byte, kind, revision string) (*DocumentDetail, error) {
	if err := s.engine.CheckSize(string(content)); err != nil {
		return nil, err
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	report, err := index.IndexFile(s.db, path, content, s.rules)
	if err != nil {
		return nil, err
	}
	s.publish(kind, path, revision, report)
	return s.detail(path, content, report), nil
}

// Delete removes a document from storage and index.
func (s *Service) Delete(_ context.Context, path string) error {
	unlock := s.lock(path)
	defer unlock()

	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	if err := s.db.DeleteDocument(path); err != nil {
		return err
	}
	s.publish(models.EventDeleted, path, "", nil)
	return nil
}

// List returns a page of indexed documents, optionally filtered by kind.
func (s *Service) List(_ context.Context, limit, offset int, kind string) ([]DocumentListItem, int, error) {
	rows, total, err := s.db.ListDocuments(limit, offset, kind)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocumentListItem, len(rows))
	for i, r := range rows {
		items[i] = DocumentListItem{
			Path:      r.Path,
			Kind:      r.Kind,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Nodes:     r.Nodes,
			FlowNodes: r.FlowNodes,
			Errors:    r.Errors,
			Warnings:  r.Warnings,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search finds outline nodes across the vault.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Issues returns indexed validation findings.
func (s *Service) Issues(_ context.Context, path, severity string) ([]index.IssueRow, error) {
	return s.db.Issues(path, severity)
}

// Tree parses a document's outline.
func (s *Service) Tree(_ context.Context, path string) (*outline.Forest, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	f, err := s.engine.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidDocument, err)
	}
	return f, nil
}

// Validate runs the consistency pass on a stored document.
func (s *Service) Validate(_ context.Context, path string) (*validate.Report, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	return validate.Document(string(data), s.rules), nil
}

// ValidateText runs the consistency pass on unsaved text.
func (s *Service) ValidateText(text string) *validate.Report {
	return validate.Document(text, s.rules)
}

// Layout computes the diagram geometry of a document.
func (s *Service) Layout(_ context.Context, path string) (*layout.Geometry, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	f, err := s.engine.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidDocument, err)
	}
	return layout.Compute(f, registry.LoadSet(string(data))), nil
}

// Swimlane computes the lane grid of one flow tab.
func (s *Service) Swimlane(_ context.Context, path, fid string) (*layout.SwimlaneGrid, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	f, err := s.engine.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidDocument, err)
	}
	g, ok := layout.Swimlane(f, registry.LoadSet(string(data)), fid)
	if !ok {
		return nil, fmt.Errorf("%w: flow %s", apperr.ErrNotFound, fid)
	}
	return g, nil
}

// Mutate applies m to the stored document as one buffer transaction. A
// non-empty ifMatch must equal the current checksum. Unchanged documents
// are not rewritten.
func (s *Service) Mutate(_ context.Context, path string, m engine.Mutation, ifMatch string) (*MutationResult, error) {
	unlock := s.lock(path)
	defer unlock()

	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(data) {
		return nil, apperr.ErrConflict
	}

	buf := &fileBuffer{store: s.store, path: path, text: string(data)}
	res, err := engine.Transact(buf, func(text string) (string, any, error) {
		return s.engine.Apply(text, m)
	})
	if err != nil {
		return nil, err
	}

	out := &MutationResult{Path: path, Checksum: checksum.SumString(buf.text), Result: res}
	if buf.revision == "" {
		return out, nil
	}
	out.Changed = true
	out.Revision = buf.revision

	report, err := index.IndexFile(s.db, path, []byte(buf.text), s.rules)
	if err != nil {
		return nil, err
	}
	s.publish(models.EventUpdated, path, buf.revision, report)
	s.logger.Info("document mutated",
		slog.String("path", path),
		slog.String("op", m.Op),
		slog.String("revision", buf.revision))
	return out, nil
}

func (s *Service) detail(path string, data []byte, report *validate.Report) *DocumentDetail {
	return &DocumentDetail{
		Path:      path,
		Kind:      report.Kind,
		Content:   string(data),
		Checksum:  checksum.Sum(data),
		Summary:   report.Summary,
		UpdatedAt: time.Now().UTC(),
	}
}
