// Package sqlcheck verifies generated DDL by executing it against a
// scratch SQLite database. Every statement runs inside a transaction that
// is rolled back, so a verifier can be reused.
package sqlcheck

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Opener returns the database statements are executed against
type Opener func(ctx context.Context) (*sql.DB, error)

// Verifier executes DDL and reports the first statement the database rejects
type Verifier struct {
	open   Opener
	logger *zap.Logger
}

// Option configures a Verifier
type Option func(*Verifier)

// WithOpener replaces the in-memory SQLite database
func WithOpener(open Opener) Option {
	return func(v *Verifier) {
		v.open = open
	}
}

// WithLogger logs executed statements at debug level
func WithLogger(logger *zap.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New creates a verifier backed by an in-memory SQLite database
func New(opts ...Option) *Verifier {
	v := &Verifier{
		open:   openMemory,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func openMemory(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	// each connection of :memory: is a separate database
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// StatementError reports a rejected statement
type StatementError struct {
	Index     int // 1-based position in the script
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %d (%s): %v", e.Index, summarize(e.Statement), e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Verify executes every statement of ddl. Scripts without statements pass.
func (v *Verifier) Verify(ctx context.Context, ddl string) error {
	statements := Split(ddl)
	if len(statements) == 0 {
		return nil
	}

	db, err := v.open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range statements {
		v.logger.Debug("executing statement", zap.Int("index", i+1), zap.String("sql", summarize(stmt)))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return &StatementError{Index: i + 1, Statement: stmt, Err: err}
		}
	}
	return nil
}

// Split breaks a script into statements at semicolons outside quotes and
// comments. Empty statements are dropped.
func Split(script string) []string {
	var statements []string
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			end := strings.IndexByte(script[i+1:], ch)
			if end < 0 {
				current.WriteString(script[i:])
				i = len(script)
				continue
			}
			current.WriteString(script[i : i+end+2])
			i += end + 1
		case ch == '-' && i+1 < len(script) && script[i+1] == '-':
			end := strings.IndexByte(script[i:], '\n')
			if end < 0 {
				i = len(script)
				continue
			}
			i += end - 1
		case ch == '/' && i+1 < len(script) && script[i+1] == '*':
			end := strings.Index(script[i+2:], "*/")
			if end < 0 {
				i = len(script)
				continue
			}
			current.WriteByte(' ')
			i += end + 3
		case ch == ';':
			flush()
		default:
			current.WriteByte(ch)
		}
	}
	flush()
	return statements
}

func summarize(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > 60 {
		return stmt[:57] + "..."
	}
	return stmt
}
