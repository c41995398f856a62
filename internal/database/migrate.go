package database

import (
	"context"
	_ "embed"
	"fmt"
)

// Schema is the idempotent DDL for the catalog and playlist tables.
//
//go:embed schema.sql
var Schema string

// Migrate creates any missing tables and indexes.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
