package histfile

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const createTableSQL = `CREATE TABLE insert_size_histogram (
	orientation TEXT NOT NULL,
	insert_size INTEGER NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY (orientation, insert_size)
)`

func writeSQLite(ctx context.Context, path string, rows []Row) (err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close sqlite: %w", cerr)
		}
	}()

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO insert_size_histogram (orientation, insert_size, count) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Orientation, r.InsertSize, r.Count); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s/%d: %w", r.Orientation, r.InsertSize, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
