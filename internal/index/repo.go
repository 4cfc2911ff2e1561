package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/nexusmap/internal/apperr"
)

// DocumentRow is a row in the documents table.
type DocumentRow struct {
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

// NodeRow is one outline node of an indexed document.
type NodeRow struct {
	NodeID  string
	Line    int
	Level   int
	Content string
	Tags    []string
	IsFlow  bool
}

// IssueRow is one stored validation finding.
type IssueRow struct {
	Path     string `json:"path"`
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
}

// SearchResult is one matching node.
type SearchResult struct {
	Path    string `json:"path"`
	NodeID  string `json:"nodeId"`
	Line    int    `json:"line"`
	Content string `json:"content"`
	Snippet string `json:"snippet"`
}

// UpsertDocument replaces a document's summary, nodes, search entries and
// issues in one transaction.
func (db *DB) UpsertDocument(d DocumentRow, nodes []NodeRow, issues []IssueRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO documents (path, kind, title, checksum, nodes, flow_nodes, errors, warnings, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			kind       = excluded.kind,
			title      = excluded.title,
			checksum   = excluded.checksum,
			nodes      = excluded.nodes,
			flow_nodes = excluded.flow_nodes,
			errors     = excluded.errors,
			warnings   = excluded.warnings,
			updated_at = excluded.updated_at
	`, d.Path, d.Kind, d.Title, d.Checksum, d.Nodes, d.FlowNodes, d.Errors, d.Warnings, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM nodes WHERE path = ?`, d.Path); err != nil {
		return fmt.Errorf("index: clear nodes: %w", err)
	}
	if len(nodes) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO nodes (path, node_id, line, level, content, tags, is_flow) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare node insert: %w", err)
		}
		defer stmt.Close()
		for _, n := range nodes {
			tags, _ := json.Marshal(nonNil(n.Tags))
			if _, err := stmt.Exec(d.Path, n.NodeID, n.Line, n.Level, n.Content, string(tags), n.IsFlow); err != nil {
				return fmt.Errorf("index: insert node: %w", err)
			}
		}
	}
	if err := ftsUpsert(tx, d.Path, nodes); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM issues WHERE path = ?`, d.Path); err != nil {
		return fmt.Errorf("index: clear issues: %w", err)
	}
	for _, is := range issues {
		if _, err := tx.Exec(`INSERT INTO issues (path, severity, code, message, line) VALUES (?, ?, ?, ?, ?)`,
			d.Path, is.Severity, is.Code, is.Message, is.Line); err != nil {
			return fmt.Errorf("index: insert issue: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteDocument removes every row of a document.
func (db *DB) DeleteDocument(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, path); err != nil {
		return err
	}
	for _, q := range []string{
		`DELETE FROM issues WHERE path = ?`,
		`DELETE FROM nodes WHERE path = ?`,
		`DELETE FROM documents WHERE path = ?`,
	} {
		if _, err := tx.Exec(q, path); err != nil {
			return fmt.Errorf("index: delete document: %w", err)
		}
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum of a document, or "" when it is
// not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

const documentColumns = `path, kind, title, checksum, nodes, flow_nodes, errors, warnings, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (DocumentRow, error) {
	var d DocumentRow
	err := s.Scan(&d.Path, &d.Kind, &d.Title, &d.Checksum, &d.Nodes, &d.FlowNodes, &d.Errors, &d.Warnings, &d.UpdatedAt)
	return d, err
}

// GetDocument returns one document summary.
func (db *DB) GetDocument(path string) (*DocumentRow, error) {
	d, err := scanDocument(db.conn.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return &d, nil
}

// ListDocuments returns a page of summaries ordered by path, optionally
// filtered by kind, plus the total count.
func (db *DB) ListDocuments(limit, offset int, kind string) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where, args := "", []any{}
	if kind != "" {
		where, args = " WHERE kind = ?", append(args, kind)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+documentColumns+` FROM documents`+where+` ORDER BY path LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// Issues returns stored findings. An empty path or severity matches all.
func (db *DB) Issues(path, severity string) ([]IssueRow, error) {
	rows, err := db.conn.Query(`
		SELECT path, severity, code, message, line FROM issues
		WHERE (? = '' OR path = ?) AND (? = '' OR severity = ?)
		ORDER BY path, line, rowid
	`, path, path, severity, severity)
	if err != nil {
		return nil, fmt.Errorf("index: issues: %w", err)
	}
	defer rows.Close()

	var out []IssueRow
	for rows.Next() {
		var is IssueRow
		if err := rows.Scan(&is.Path, &is.Severity, &is.Code, &is.Message, &is.Line); err != nil {
			return nil, err
		}
		out = append(out, is)
	}
	return out, rows.Err()
}

// AllChecksums maps every indexed path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
