package model

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// DocumentRetriever answers the reasoning agent's FAQ/document lookups.
// Failures are reported as user-safe text rather than errors where possible.
type DocumentRetriever interface {
	RetrieveDocument(ctx context.Context, query string) (string, error)
}

// DatasetQueryRunner executes one generated query against one data source.
// A missing backing store is reported with errx.ErrDataSourceNotFound.
type DatasetQueryRunner interface {
	Execute(ctx context.Context, dataSourcePath, query, dataSourceName string) (*TabularResult, error)
}

// MemoryStore is the optional long-term memory collaborator.
type MemoryStore interface {
	GetContext(ctx context.Context, query, namespace string) (string, error)
	AddContext(ctx context.Context, messages []*schema.Message, namespace string) error
}

// TokenEstimator prices structured-output calls that carry no usage metadata.
type TokenEstimator interface {
	Estimate(prompt, response string) int
}

// TabularResult is the outcome of a dataset query.
type TabularResult struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the query matched no rows.
func (r *TabularResult) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// String renders the result as a pipe-separated table.
func (r *TabularResult) String() string {
	if r.Empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Join(r.Columns, " | "))
	b.WriteByte('\n')
	for _, row := range r.Rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
