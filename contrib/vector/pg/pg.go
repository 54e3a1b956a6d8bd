package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/sweetpotato0/docqa/config"
	docerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/vector"
)

const defaultTopK = 10

// PGVectorConfig is a connection block plus the passage table layout.
// Dimension must match the embedder feeding the index.
type PGVectorConfig struct {
	config.Postgres
	Dimension int
	TableName string
}

func DefaultPGVectorConfig() *PGVectorConfig {
	return &PGVectorConfig{
		Postgres:  config.PostgresFromEnv(),
		Dimension: 1536,
		TableName: config.String("PGVECTOR_TABLE", "docqa_passages"),
	}
}

func (c *PGVectorConfig) Validate() error {
	return c.Check(config.NewValidator()).
		ValidateRange("dimension", c.Dimension, 1, 16000).
		RequireIdentifier("tableName", c.TableName).
		Error()
}

// PGVectorStore indexes passages in a pgvector column and answers nearest
// neighbour queries with the L2 operator. seq breaks distance ties in
// insertion order, matching the in-memory store.
type PGVectorStore struct {
	db  *sql.DB
	dim int
	sql passageSQL
}

var _ vector.VectorStore = (*PGVectorStore)(nil)

type passageSQL struct {
	create, upsert, search, clear, count string
}

func newPassageSQL(table string, dim int) passageSQL {
	return passageSQL{
		create: fmt.Sprintf(`CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS %s (
	id VARCHAR(255) PRIMARY KEY,
	seq BIGSERIAL,
	text TEXT NOT NULL,
	embedding vector(%d) NOT NULL,
	indexed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`, table, dim),
		upsert: fmt.Sprintf(`INSERT INTO %s (id, text, embedding) VALUES ($1, $2, $3::vector)
ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text, embedding = EXCLUDED.embedding, indexed_at = now()`, table),
		search: fmt.Sprintf(`SELECT id, text, embedding %s $1::vector AS distance FROM %s
ORDER BY distance, seq LIMIT $2`, vector.L2DistanceOperator(), table),
		clear: fmt.Sprintf(`TRUNCATE TABLE %s`, table),
		count: fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table),
	}
}

// NewPGVectorStore connects and makes sure the extension and passage table
// exist. A nil cfg uses DefaultPGVectorConfig.
func NewPGVectorStore(ctx context.Context, cfg *PGVectorConfig) (*PGVectorStore, error) {
	if cfg == nil {
		cfg = DefaultPGVectorConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", docerrors.ErrInvalidInput, err)
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open passage index: %w", err)
	}
	s := &PGVectorStore{db: db, dim: cfg.Dimension, sql: newPassageSQL(cfg.TableName, cfg.Dimension)}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping passage index: %w", err)
	}
	if _, err := db.ExecContext(ctx, s.sql.create); err != nil {
		db.Close()
		return nil, fmt.Errorf("create passage table: %w", err)
	}
	return s, nil
}

func (s *PGVectorStore) AddEmbedding(ctx context.Context, e *vector.Embedding) error {
	if err := vector.Check(e, s.dim); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.sql.upsert, e.ID, e.Text, formatVector(e.Vector)); err != nil {
		return fmt.Errorf("index passage %s: %w", e.ID, err)
	}
	return nil
}

func (s *PGVectorStore) Search(ctx context.Context, query []float32, topK int) ([]*vector.Embedding, error) {
	if err := vector.CheckQuery(query, s.dim); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = defaultTopK
	}
	rows, err := s.db.QueryContext(ctx, s.sql.search, formatVector(query), topK)
	if err != nil {
		return nil, fmt.Errorf("search passages: %w", err)
	}
	defer rows.Close()

	hits := make([]*vector.Embedding, 0, topK)
	for rows.Next() {
		var h vector.Embedding
		if err := rows.Scan(&h.ID, &h.Text, &h.Distance); err != nil {
			return nil, fmt.Errorf("scan passage: %w", err)
		}
		hits = append(hits, &h)
	}
	return hits, rows.Err()
}

func (s *PGVectorStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.sql.clear)
	return err
}

func (s *PGVectorStore) Count(ctx context.Context) (n int, err error) {
	err = s.db.QueryRowContext(ctx, s.sql.count).Scan(&n)
	return n, err
}

func (s *PGVectorStore) Close() error { return s.db.Close() }

// formatVector renders the pgvector text literal, e.g. [1,0.5,-2].
func formatVector(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
