package index

import (
	"path"
	"strings"
	"time"

	"github.com/starford/nexusmap/internal/checksum"
	"github.com/starford/nexusmap/internal/outline"
	"github.com/starford/nexusmap/internal/validate"
)

// Build validates data and projects it into index rows. A document with
// structural errors still gets a summary and its issues, but no nodes.
func Build(p string, data []byte, rules validate.Options) (DocumentRow, []NodeRow, []IssueRow, *validate.Report) {
	text := string(data)
	report := validate.Document(text, rules)

	d := DocumentRow{
		Path:      p,
		Kind:      report.Kind,
		Title:     strings.TrimSuffix(path.Base(p), path.Ext(p)),
		Checksum:  checksum.Sum(data),
		Nodes:     report.Summary.Nodes,
		FlowNodes: report.Summary.FlowNodes,
		Errors:    report.Summary.Errors,
		Warnings:  report.Summary.Warnings,
		UpdatedAt: time.Now().UTC(),
	}

	var nodes []NodeRow
	if f, err := outline.Parse(text); err == nil {
		if len(f.Roots) > 0 {
			d.Title = f.Roots[0].Title
		}
		for _, n := range f.Nodes {
			nodes = append(nodes, NodeRow{
				NodeID:  n.ID,
				Line:    n.LineIndex + 1,
				Level:   n.Level,
				Content: n.Content,
				Tags:    n.Tags,
				IsFlow:  n.IsFlowNode,
			})
		}
	}

	issues := make([]IssueRow, len(report.Issues))
	for i, is := range report.Issues {
		issues[i] = IssueRow{Path: p, Severity: string(is.Severity), Code: is.Code, Message: is.Message, Line: is.Line}
	}
	return d, nodes, issues, report
}

// IndexFile validates data and upserts it. The report is returned so
// callers can publish it.
func IndexFile(db DocumentIndex, p string, data []byte, rules validate.Options) (*validate.Report, error) {
	d, nodes, issues, report := Build(p, data, rules)
	if err := db.UpsertDocument(d, nodes, issues); err != nil {
		return nil, err
	}
	return report, nil
}
