package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	migrations "github.com/dropDatabas3/cryptoqr/migrations/postgres"
)

// PG implementa Registry sobre postgres. El PRIMARY KEY compuesto
// (namespace_id, content_hash) más INSERT .. ON CONFLICT DO NOTHING dan el
// check-and-record atómico; el registro original nunca se pisa.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG abre un pool pgx contra dsn y verifica conectividad.
func NewPG(ctx context.Context, dsn string) (*PG, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("registry pg: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("registry pg: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("registry pg ping: %w", err)
	}
	return &PG{pool: pool}, nil
}

// Pool expone el pool interno (migraciones/metrics).
func (p *PG) Pool() *pgxpool.Pool { return p.pool }

// Migrate aplica las migraciones embebidas en orden lexicográfico.
// Idempotente: el schema usa IF NOT EXISTS.
func (p *PG) Migrate(ctx context.Context) error {
	entries, err := migrations.FS.ReadDir(migrations.Dir)
	if err != nil {
		return fmt.Errorf("registry migrate: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		sqlBytes, err := migrations.FS.ReadFile(migrations.Dir + "/" + name)
		if err != nil {
			return fmt.Errorf("registry migrate read %s: %w", name, err)
		}
		if _, err := p.pool.Exec(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("registry migrate apply %s: %w", name, err)
		}
	}
	return nil
}

func (p *PG) CheckAndRecord(ctx context.Context, namespaceID, contentHash string, rec Record) (Record, bool, error) {
	// issued_at se guarda como TEXT: preservamos el string RFC3339 firmado
	// tal cual, sin drift de precisión por round-trip timestamptz.
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO registry_records (namespace_id, content_hash, submission_id, issued_at, contact)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (namespace_id, content_hash) DO NOTHING`,
		namespaceID, contentHash, rec.SubmissionID, rec.Timestamp, rec.Contact)
	if err != nil {
		return Record{}, false, fmt.Errorf("registry insert: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return rec, false, nil
	}

	var existing Record
	err = p.pool.QueryRow(ctx, `
		SELECT submission_id, issued_at, contact
		FROM registry_records
		WHERE namespace_id = $1 AND content_hash = $2`,
		namespaceID, contentHash).Scan(&existing.SubmissionID, &existing.Timestamp, &existing.Contact)
	if err != nil {
		return Record{}, false, fmt.Errorf("registry select: %w", err)
	}
	return existing, true, nil
}

func (p *PG) Stats(ctx context.Context, namespaceID string) (Stats, error) {
	var s Stats
	var first, last *string
	err := p.pool.QueryRow(ctx, `
		SELECT count(*), min(issued_at), max(issued_at)
		FROM registry_records
		WHERE namespace_id = $1`,
		namespaceID).Scan(&s.Total, &first, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("registry stats: %w", err)
	}
	if first != nil {
		s.First = *first
	}
	if last != nil {
		s.Last = *last
	}
	return s, nil
}

func (p *PG) Overview(ctx context.Context) ([]NamespaceCount, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT namespace_id, count(*)
		FROM registry_records
		GROUP BY namespace_id
		ORDER BY namespace_id`)
	if err != nil {
		return nil, fmt.Errorf("registry overview: %w", err)
	}
	defer rows.Close()

	var out []NamespaceCount
	for rows.Next() {
		var nc NamespaceCount
		if err := rows.Scan(&nc.NamespaceID, &nc.Total); err != nil {
			return nil, err
		}
		out = append(out, nc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PG) List(ctx context.Context, namespaceID string) (map[string]Record, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT content_hash, submission_id, issued_at, contact
		FROM registry_records
		WHERE namespace_id = $1`,
		namespaceID)
	if err != nil {
		return nil, fmt.Errorf("registry list: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Record)
	for rows.Next() {
		var hash string
		var rec Record
		if err := rows.Scan(&hash, &rec.SubmissionID, &rec.Timestamp, &rec.Contact); err != nil {
			return nil, err
		}
		out[hash] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PG) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *PG) Close() error {
	p.pool.Close()
	return nil
}
