package index

// DocumentIndex is the index surface consumed by the services.
type DocumentIndex interface {
	UpsertDocument(d DocumentRow, nodes []NodeRow, issues []IssueRow) error
	DeleteDocument(path string) error
	GetChecksum(path string) (string, error)
	GetDocument(path string) (*DocumentRow, error)
	ListDocuments(limit, offset int, kind string) ([]DocumentRow, int, error)
	Issues(path, severity string) ([]IssueRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

var _ DocumentIndex = (*DB)(nil)
