package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Chative-core-poc-v1/csagent/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/csagent/internal/core/error"
	logx "github.com/Chative-core-poc-v1/csagent/pkg/logger"
)

const defaultMaxRows = 200

// ErrQueryNotReadOnly is returned for anything but a single SELECT/WITH statement.
var ErrQueryNotReadOnly = errors.New("only single read-only SELECT queries are allowed")

// SQLiteDatasetRunner executes generated queries against per-data-source
// SQLite files opened read-only. Handles are cached per path.
type SQLiteDatasetRunner struct {
	mu      sync.Mutex
	dbs     map[string]*sql.DB
	maxRows int
}

func NewSQLiteDatasetRunner() *SQLiteDatasetRunner {
	return &SQLiteDatasetRunner{dbs: map[string]*sql.DB{}, maxRows: defaultMaxRows}
}

// Execute runs query against the data source stored at path.
func (r *SQLiteDatasetRunner) Execute(ctx context.Context, path, query, name string) (*model.TabularResult, error) {
	query, err := readOnlyQuery(query)
	if err != nil {
		return nil, err
	}

	db, err := r.open(path)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			logx.Warn().Err(err).Str("data_source", name).Msg("query targeted a missing table")
			return nil, fmt.Errorf("%s: %w", name, errx.ErrDataSourceNotFound)
		}
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", name, err)
	}
	out := &model.TabularResult{Columns: cols}
	for rows.Next() {
		if len(out.Rows) >= r.maxRows {
			logx.Debug().Str("data_source", name).Int("max_rows", r.maxRows).Msg("result truncated")
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = formatValue(v)
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", name, err)
	}
	return out, nil
}

// Close releases every cached handle.
func (r *SQLiteDatasetRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for p, db := range r.dbs {
		errs = append(errs, db.Close())
		delete(r.dbs, p)
	}
	return errors.Join(errs...)
}

func (r *SQLiteDatasetRunner) open(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, errx.ErrDataSourceNotFound)
		}
		return nil, fmt.Errorf("stat data source: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if db, ok := r.dbs[path]; ok {
		return db, nil
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open data source: %w", err)
	}
	r.dbs[path] = db
	return db, nil
}

func readOnlyQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	q = strings.TrimSuffix(q, ";")
	if q == "" || strings.Contains(q, ";") {
		return "", ErrQueryNotReadOnly
	}
	head := strings.ToUpper(strings.Fields(q)[0])
	if head != "SELECT" && head != "WITH" {
		return "", ErrQueryNotReadOnly
	}
	return q, nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

var _ model.DatasetQueryRunner = (*SQLiteDatasetRunner)(nil)
