package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"naver-trends/models"
)

// undefinedTable is the PostgreSQL error code for a missing relation.
const undefinedTable = "42P01"

// PostgresWarehouse stores each client's rows in a table inside a schema
// named after the client.
type PostgresWarehouse struct {
	db        *sql.DB
	tableName string
	batchSize int
}

// NewPostgresWarehouse opens a connection to PostgreSQL and waits for it to
// accept connections.
func NewPostgresWarehouse(dsn, tableName string) (*PostgresWarehouse, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	return &PostgresWarehouse{db: db, tableName: tableName, batchSize: 500}, nil
}

func (pw *PostgresWarehouse) Ref(dataset string) TableRef {
	return TableRef{Dataset: dataset, Table: pw.tableName}
}

func (pw *PostgresWarehouse) LookupTable(ctx context.Context, ref TableRef) (TableStatus, error) {
	var exists bool
	err := pw.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)
	`, ref.Dataset, ref.Table).Scan(&exists)
	if err != nil {
		return TableNotFound, fmt.Errorf("postgres: lookup %s: %w", ref.ID(), err)
	}
	if exists {
		return TableFound, nil
	}
	return TableNotFound, nil
}

func (pw *PostgresWarehouse) CreateTable(ctx context.Context, ref TableRef) error {
	_, err := pw.db.ExecContext(ctx, createTableSQL(ref))
	if err != nil {
		return fmt.Errorf("postgres: create %s: %w", ref.ID(), err)
	}
	return nil
}

func createTableSQL(ref TableRef) string {
	return fmt.Sprintf(`
		CREATE SCHEMA IF NOT EXISTS %[1]s;

		CREATE TABLE IF NOT EXISTS %[2]s (
			corporate_id TEXT,
			brand_id     TEXT,
			date         TEXT,
			keyword      TEXT,
			keyword_type TEXT,
			category_1   TEXT,
			category_2   TEXT,
			category_3   TEXT,
			category_4   TEXT,
			category_5   TEXT,
			device_type  TEXT,
			queries      BIGINT
		);
	`, pq.QuoteIdentifier(ref.Dataset), qualified(ref))
}

func (pw *PostgresWarehouse) LatestDates(ctx context.Context, ref TableRef) (models.LatestDates, error) {
	rows, err := pw.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT device_type, keyword, MAX(date) AS latest_date
		FROM %s
		GROUP BY device_type, keyword
	`, qualified(ref)))
	if err != nil {
		return nil, fmt.Errorf("postgres: latest dates %s: %w", ref.ID(), err)
	}
	defer rows.Close()

	latest := models.LatestDates{}
	for rows.Next() {
		var device, keyword, date string
		if err := rows.Scan(&device, &keyword, &date); err != nil {
			return nil, fmt.Errorf("postgres: scan latest date: %w", err)
		}
		latest.Set(models.DeviceType(device), keyword, date)
	}
	return latest, rows.Err()
}

// InsertRows batch-inserts rows inside one transaction, so a failed call
// leaves nothing behind.
func (pw *PostgresWarehouse) InsertRows(ctx context.Context, ref TableRef, rows []*models.Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := 0; i < len(rows); i += pw.batchSize {
		end := i + pw.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		query, args := buildInsert(ref, rows[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return classifyInsertError(ref, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func buildInsert(ref TableRef, batch []*models.Row) (string, []any) {
	n := len(Columns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*n)

	for idx, r := range batch {
		placeholders := make([]string, n)
		for c := 0; c < n; c++ {
			placeholders[c] = fmt.Sprintf("$%d", idx*n+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs, rowValues(r)...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		qualified(ref), strings.Join(Columns, ", "), strings.Join(valueStrings, ","))
	return query, valueArgs
}

func classifyInsertError(ref TableRef, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
		return fmt.Errorf("postgres: insert %s: %w", ref.ID(), ErrTableNotFound)
	}
	return fmt.Errorf("postgres: insert %s: %w", ref.ID(), err)
}

func qualified(ref TableRef) string {
	return pq.QuoteIdentifier(ref.Dataset) + "." + pq.QuoteIdentifier(ref.Table)
}

func (pw *PostgresWarehouse) Close() error {
	return pw.db.Close()
}
