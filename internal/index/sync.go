package index

import (
	"log/slog"

	"github.com/starford/nexusmap/internal/storage"
	"github.com/starford/nexusmap/internal/validate"
)

// Sync walks the vault and brings the index up to date: new and changed
// documents are re-validated and upserted, documents gone from disk are
// removed.
func Sync(db DocumentIndex, store storage.Provider, rules validate.Options, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		if checksums[m.Path] == m.Checksum {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		report, err := IndexFile(db, m.Path, data, rules)
		if err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: indexed",
			slog.String("path", m.Path),
			slog.Int("errors", report.Summary.Errors),
			slog.Int("warnings", report.Summary.Warnings))
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteDocument(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}
	return nil
}
