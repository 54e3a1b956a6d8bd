package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/sweetpotato0/docqa/config"
	docerrors "github.com/sweetpotato0/docqa/errors"
	"github.com/sweetpotato0/docqa/memory"
)

const defaultTurnTable = "docqa_turns"

// PostgresConfig is a connection block plus the turn table name.
type PostgresConfig struct {
	config.Postgres
	Table string
}

func (c *PostgresConfig) table() string {
	if c.Table == "" {
		return defaultTurnTable
	}
	return c.Table
}

// PostgresStore keeps one row per turn snapshot. question and answer are
// plain columns so ILIKE can match them; the full Turn JSON sits in content.
type PostgresStore struct {
	db  *sql.DB
	sql turnSQL
}

var _ memory.MemoryStore = (*PostgresStore)(nil)

// turnSQL holds the statements for one table, rendered once.
type turnSQL struct {
	create, upsert, all, match, byID, clear, count string
}

const turnColumns = `id, seq, question, answer, outcome, score, content, metadata, created_at`

func newTurnSQL(table string) turnSQL {
	return turnSQL{
		create: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	id VARCHAR(64) PRIMARY KEY,
	seq INTEGER NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	outcome VARCHAR(64) NOT NULL,
	score INTEGER NOT NULL,
	content JSONB NOT NULL,
	metadata JSONB,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS %[1]s_seq_idx ON %[1]s (seq);`, table),
		upsert: fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET seq = EXCLUDED.seq, question = EXCLUDED.question,
	answer = EXCLUDED.answer, outcome = EXCLUDED.outcome, score = EXCLUDED.score,
	content = EXCLUDED.content, metadata = EXCLUDED.metadata`, table, turnColumns),
		all:   fmt.Sprintf(`SELECT %s FROM %s ORDER BY seq, created_at`, turnColumns, table),
		match: fmt.Sprintf(`SELECT %s FROM %s WHERE question ILIKE $1 OR answer ILIKE $1 ORDER BY seq, created_at`, turnColumns, table),
		byID:  fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, turnColumns, table),
		clear: fmt.Sprintf(`DELETE FROM %s`, table),
		count: fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table),
	}
}

// NewPostgresStore validates cfg, connects and creates the table. A nil cfg
// reads the environment.
func NewPostgresStore(ctx context.Context, cfg *PostgresConfig) (*PostgresStore, error) {
	if cfg == nil {
		cfg = PostgresConfigFromEnv()
	}
	err := cfg.Check(config.NewValidator()).
		RequireIdentifier("table", cfg.table()).
		Error()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", docerrors.ErrInvalidInput, err)
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open turn database: %w", err)
	}
	s := &PostgresStore{db: db, sql: newTurnSQL(cfg.table())}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping turn database: %w", err)
	}
	if _, err := db.ExecContext(ctx, s.sql.create); err != nil {
		db.Close()
		return nil, fmt.Errorf("create turn table: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) AddMemory(ctx context.Context, mem *memory.Memory) error {
	if err := checkSnapshot(mem); err != nil {
		return err
	}
	if mem.CreatedAt.IsZero() {
		mem.CreatedAt = time.Now()
	}
	meta := "{}"
	if len(mem.Metadata) > 0 {
		b, err := json.Marshal(mem.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", mem.ID, err)
		}
		meta = string(b)
	}
	_, err := s.db.ExecContext(ctx, s.sql.upsert,
		mem.ID, mem.Seq, mem.Question, mem.Answer, mem.Outcome, mem.Score,
		mem.Content, meta, mem.CreatedAt)
	if err != nil {
		return fmt.Errorf("store turn %s: %w", mem.ID, err)
	}
	return nil
}

// SearchMemory matches question or answer case-insensitively. LIKE
// metacharacters in query are escaped so the match stays literal.
func (s *PostgresStore) SearchMemory(ctx context.Context, query string) ([]*memory.Memory, error) {
	query = strings.TrimSpace(query)
	var (
		rows *sql.Rows
		err  error
	)
	if query == "" {
		rows, err = s.db.QueryContext(ctx, s.sql.all)
	} else {
		rows, err = s.db.QueryContext(ctx, s.sql.match, "%"+likeEscaper.Replace(query)+"%")
	}
	if err != nil {
		return nil, fmt.Errorf("search turns: %w", err)
	}
	defer rows.Close()

	out := make([]*memory.Memory, 0)
	for rows.Next() {
		mem, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mem)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetMemoryByID(ctx context.Context, id string) (*memory.Memory, error) {
	mem, err := scanSnapshot(s.db.QueryRowContext(ctx, s.sql.byID, id))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("turn %s: %w", id, docerrors.ErrNotFound)
	case err != nil:
		return nil, err
	}
	return mem, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.sql.clear)
	return err
}

func (s *PostgresStore) Count(ctx context.Context) (n int, err error) {
	err = s.db.QueryRowContext(ctx, s.sql.count).Scan(&n)
	return n, err
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *PostgresStore) Close() error { return s.db.Close() }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scanSnapshot(row interface{ Scan(...any) error }) (*memory.Memory, error) {
	var (
		mem  memory.Memory
		meta sql.NullString
	)
	err := row.Scan(&mem.ID, &mem.Seq, &mem.Question, &mem.Answer, &mem.Outcome,
		&mem.Score, &mem.Content, &meta, &mem.CreatedAt)
	if err != nil {
		return nil, err
	}
	if meta.Valid && meta.String != "{}" {
		if err := json.Unmarshal([]byte(meta.String), &mem.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", mem.ID, err)
		}
	}
	return &mem, nil
}
