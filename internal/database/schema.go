package database

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates any missing tables and indexes. Existing objects are
// left untouched.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range schemaStatements() {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// schemaStatements splits the schema on semicolons outside $$ blocks.
func schemaStatements() []string {
	var (
		stmts  []string
		quoted bool
		start  int
	)
	for i := 0; i < len(schemaSQL); i++ {
		switch {
		case strings.HasPrefix(schemaSQL[i:], "$$"):
			quoted = !quoted
			i++
		case schemaSQL[i] == ';' && !quoted:
			if s := strings.TrimSpace(schemaSQL[start:i]); s != "" {
				stmts = append(stmts, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(schemaSQL[start:]); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}
