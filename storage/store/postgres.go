package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"roadmon/internal/models"
)

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS road_records (
	id         BIGSERIAL PRIMARY KEY,
	device_id  TEXT NOT NULL DEFAULT '',
	payload    JSONB NOT NULL
)`

// PostgresStore implements Store on a pgx connection pool. The sequence
// order is the insertion order of the id column; the cap eviction runs in
// the same transaction as the insert, so no reader ever observes more than
// the retained window. A process-wide mutex serializes mutations, matching
// the single-partition write model of the file backend.
type PostgresStore struct {
	pool   *pgxpool.Pool
	cap    int
	mu     sync.Mutex
	logger *log.Logger
}

// NewPostgresStore connects to the database, ensures the schema exists and
// returns a ready store.
func NewPostgresStore(ctx context.Context, dsn string, minConns, maxConns, retentionCap int, logger *log.Logger) (*PostgresStore, error) {
	if retentionCap <= 0 {
		return nil, fmt.Errorf("retention cap must be positive, got %d", retentionCap)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	poolCfg.MinConns = int32(minConns)
	poolCfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := pool.Exec(ctx, createRecordsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure road_records table: %w", err)
	}

	logger.Println("Postgres store initialized.")
	return &PostgresStore{pool: pool, cap: retentionCap, logger: logger}, nil
}

// Append implements Store.
func (p *PostgresStore) Append(ctx context.Context, rec models.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin append transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO road_records (device_id, payload) VALUES ($1, $2)`,
		rec.DeviceID(), payload); err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	// Evict everything older than the newest cap records.
	if _, err := tx.Exec(ctx,
		`DELETE FROM road_records
		 WHERE id NOT IN (SELECT id FROM road_records ORDER BY id DESC LIMIT $1)`,
		p.cap); err != nil {
		return fmt.Errorf("failed to evict old records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit append transaction: %w", err)
	}
	return nil
}

// All implements Store.
func (p *PostgresStore) All(ctx context.Context) []models.Record {
	return p.query(ctx, `SELECT payload FROM road_records ORDER BY id ASC`)
}

// ByDevice implements Store.
func (p *PostgresStore) ByDevice(ctx context.Context, id string) []models.Record {
	return p.query(ctx,
		`SELECT payload FROM road_records WHERE device_id = $1 ORDER BY id ASC`, id)
}

// Clear implements Store.
func (p *PostgresStore) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.pool.Exec(ctx, `DELETE FROM road_records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}

// Close implements Store.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// query runs a payload select; any read error yields an empty sequence.
func (p *PostgresStore) query(ctx context.Context, sql string, args ...interface{}) []models.Record {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		p.logger.Printf("Warning: record query failed: %v. Returning empty sequence.", err)
		return nil
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			p.logger.Printf("Warning: record scan failed: %v. Returning empty sequence.", err)
			return nil
		}
		var rec models.Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			p.logger.Printf("Warning: malformed record payload: %v. Returning empty sequence.", err)
			return nil
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		p.logger.Printf("Warning: record iteration failed: %v. Returning empty sequence.", err)
		return nil
	}
	return records
}

var _ Store = (*PostgresStore)(nil)
