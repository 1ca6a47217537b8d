// Package database implements Postgres-backed storage for battery samples
// and the mirrored content feed.
//
// Samples are keyed by device and always read back ordered ascending by
// recording time, which is the order the trend analyzer expects. Deletion is
// only ever performed here on explicit command; the analyzer recommends,
// the caller decides.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/inkwatch/inkwatch/internal/models"
)

// SampleRepository is the sample store the trend analyzer's callers read
// from and the recorder writes to.
type SampleRepository interface {
	// InsertSample stores one recording event for a device.
	InsertSample(ctx context.Context, s models.BatterySample) error

	// BatchInsertSamples stores one recording event per device in a single
	// transaction. Either all samples are inserted or none.
	BatchInsertSamples(ctx context.Context, samples []models.BatterySample) error

	// SamplesForDevice returns all samples for a device, ascending by
	// recording time.
	SamplesForDevice(ctx context.Context, deviceID string) ([]models.BatterySample, error)

	// DeviceIDs returns every device that has at least one stored sample.
	DeviceIDs(ctx context.Context) ([]string, error)

	// DeleteSamplesForDevice removes a device's entire history.
	DeleteSamplesForDevice(ctx context.Context, deviceID string) error

	// DeleteSamplesBefore removes a device's samples recorded strictly
	// before cutoff and reports how many were deleted.
	DeleteSamplesBefore(ctx context.Context, deviceID string, cutoff time.Time) (int64, error)

	// Close releases the underlying connection pool.
	Close() error
}

// FeedRepository stores the mirrored announcements feed with read state.
type FeedRepository interface {
	// UpsertFeedItems inserts new items and refreshes existing ones,
	// keyed by GUID. Read flags on existing items are preserved.
	UpsertFeedItems(ctx context.Context, items []models.FeedItem) error

	// FeedItems returns all items, newest first.
	FeedItems(ctx context.Context) ([]models.FeedItem, error)

	// MarkFeedItemRead flags one item as read.
	MarkFeedItemRead(ctx context.Context, guid string) error
}

// PostgresRepo implements SampleRepository and FeedRepository on Postgres.
type PostgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo opens a connection pool, verifies connectivity and creates
// the schema if it does not exist yet.
func NewPostgresRepo(connStr string, maxConns int) (*PostgresRepo, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxConns)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	repo := &PostgresRepo{db: db}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return repo, nil
}

func (r *PostgresRepo) initSchema() error {
	_, err := r.db.Exec(`
        CREATE TABLE IF NOT EXISTS battery_samples (
            id              BIGSERIAL PRIMARY KEY,
            device_id       TEXT NOT NULL,
            percent_charged DOUBLE PRECISION NOT NULL,
            voltage         DOUBLE PRECISION,
            recorded_at     TIMESTAMPTZ NOT NULL
        );
        CREATE INDEX IF NOT EXISTS battery_samples_device_time_idx
            ON battery_samples (device_id, recorded_at);

        CREATE TABLE IF NOT EXISTS feed_items (
            guid         TEXT PRIMARY KEY,
            title        TEXT NOT NULL,
            link         TEXT NOT NULL,
            summary      TEXT NOT NULL DEFAULT '',
            published_at TIMESTAMPTZ NOT NULL,
            read         BOOLEAN NOT NULL DEFAULT FALSE
        );
    `)
	return err
}

func (r *PostgresRepo) InsertSample(ctx context.Context, s models.BatterySample) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO battery_samples (device_id, percent_charged, voltage, recorded_at)
        VALUES ($1, $2, $3, $4)`,
		s.DeviceID, s.PercentCharged, nullFloat(s.Voltage), s.RecordedAt,
	)
	return err
}

func (r *PostgresRepo) BatchInsertSamples(ctx context.Context, samples []models.BatterySample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // rollback if not committed

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO battery_samples (device_id, percent_charged, voltage, recorded_at)
        VALUES ($1, $2, $3, $4)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.ExecContext(ctx, s.DeviceID, s.PercentCharged, nullFloat(s.Voltage), s.RecordedAt); err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepo) SamplesForDevice(ctx context.Context, deviceID string) ([]models.BatterySample, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT device_id, percent_charged, voltage, recorded_at
        FROM battery_samples
        WHERE device_id = $1
        ORDER BY recorded_at ASC`,
		deviceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.BatterySample
	for rows.Next() {
		var s models.BatterySample
		var voltage sql.NullFloat64
		if err := rows.Scan(&s.DeviceID, &s.PercentCharged, &voltage, &s.RecordedAt); err != nil {
			return nil, err
		}
		if voltage.Valid {
			v := voltage.Float64
			s.Voltage = &v
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

func (r *PostgresRepo) DeviceIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT device_id FROM battery_samples ORDER BY device_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresRepo) DeleteSamplesForDevice(ctx context.Context, deviceID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM battery_samples WHERE device_id = $1", deviceID)
	return err
}

func (r *PostgresRepo) DeleteSamplesBefore(ctx context.Context, deviceID string, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM battery_samples WHERE device_id = $1 AND recorded_at < $2",
		deviceID, cutoff,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresRepo) UpsertFeedItems(ctx context.Context, items []models.FeedItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO feed_items (guid, title, link, summary, published_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (guid) DO UPDATE SET
            title = EXCLUDED.title,
            link = EXCLUDED.link,
            summary = EXCLUDED.summary,
            published_at = EXCLUDED.published_at`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, it.GUID, it.Title, it.Link, it.Summary, it.PublishedAt); err != nil {
			return fmt.Errorf("failed to upsert feed item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepo) FeedItems(ctx context.Context) ([]models.FeedItem, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT guid, title, link, summary, published_at, read
        FROM feed_items
        ORDER BY published_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.FeedItem
	for rows.Next() {
		var it models.FeedItem
		if err := rows.Scan(&it.GUID, &it.Title, &it.Link, &it.Summary, &it.PublishedAt, &it.Read); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresRepo) MarkFeedItemRead(ctx context.Context, guid string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE feed_items SET read = TRUE WHERE guid = $1", guid)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no feed item with guid %q", guid)
	}
	return nil
}

func (r *PostgresRepo) Close() error {
	return r.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// Compile-time interface implementation checks
var (
	_ SampleRepository = (*PostgresRepo)(nil)
	_ FeedRepository   = (*PostgresRepo)(nil)
)
