package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"convertstudio/models"
)

// ErrRecordNotFound is returned by Get when no record exists for the key.
var ErrRecordNotFound = errors.New("conversion record not found")

// DatabaseService is the Postgres-backed record store. One row per
// (user_id, record_id):
//
//	CREATE TABLE user_files (
//	    user_id            text NOT NULL,
//	    record_id          uuid NOT NULL,
//	    conversion_status  text NOT NULL DEFAULT 'pending',
//	    converted_path     text,
//	    processing_time_ms bigint,
//	    error_message      text,
//	    converted_at       timestamptz,
//	    last_updated       timestamptz NOT NULL DEFAULT now(),
//	    PRIMARY KEY (user_id, record_id)
//	);
type DatabaseService struct {
	db *sql.DB
}

func NewDatabaseService(databaseURL string) (*DatabaseService, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseService{db: db}, nil
}

// Merge upserts a partial status update into the record. COALESCE keeps
// columns the update does not carry, so a failed write never clears a
// previously recorded converted_path and vice versa. last_updated is
// server-assigned; converted_at is stamped only on completed transitions.
func (d *DatabaseService) Merge(ctx context.Context, userID, recordID string, update models.StatusUpdate) error {
	query := `
		INSERT INTO user_files (
			user_id, record_id, conversion_status,
			converted_path, processing_time_ms, error_message,
			converted_at, last_updated
		)
		VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $3 = 'completed' THEN now() END, now())
		ON CONFLICT (user_id, record_id) DO UPDATE SET
			conversion_status  = EXCLUDED.conversion_status,
			converted_path     = COALESCE(EXCLUDED.converted_path, user_files.converted_path),
			processing_time_ms = COALESCE(EXCLUDED.processing_time_ms, user_files.processing_time_ms),
			error_message      = COALESCE(EXCLUDED.error_message, user_files.error_message),
			converted_at       = COALESCE(EXCLUDED.converted_at, user_files.converted_at),
			last_updated       = now()`

	_, err := d.db.ExecContext(ctx, query,
		userID, recordID, string(update.Status),
		update.ConvertedPath, update.ProcessingTimeMs, update.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to merge conversion record: %w", err)
	}
	return nil
}

// Get fetches the record for (userID, recordID).
func (d *DatabaseService) Get(ctx context.Context, userID, recordID string) (*models.ConversionRecord, error) {
	query := `
		SELECT conversion_status, converted_path, processing_time_ms,
		       error_message, converted_at, last_updated
		FROM user_files
		WHERE user_id = $1 AND record_id = $2`

	record := models.ConversionRecord{UserID: userID, RecordID: recordID}
	var status string

	err := d.db.QueryRowContext(ctx, query, userID, recordID).Scan(
		&status,
		&record.ConvertedPath,
		&record.ProcessingTimeMs,
		&record.ErrorMessage,
		&record.ConvertedAt,
		&record.LastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read conversion record: %w", err)
	}

	record.Status = models.Status(status)
	return &record, nil
}

func (d *DatabaseService) Close() error {
	return d.db.Close()
}
