package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/scythe504/sketchguess-backend/internal"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNoDatabase = errors.New("catalog database is not configured")

// Store reads and writes the sketch catalog in Postgres.
type Store struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewStore(ctx context.Context, dsn string, log *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, ErrNoDatabase
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect catalog database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping catalog database: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, dsn string) error {
	if dsn == "" {
		return ErrNoDatabase
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// List loads the whole catalog.
func (s *Store) List(ctx context.Context) (*Catalog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, youtube_id, description, tags, difficulty FROM sketches ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query sketches: %w", err)
	}

	sketches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (internal.Sketch, error) {
		var (
			sketch     internal.Sketch
			difficulty string
		)
		err := row.Scan(&sketch.ID, &sketch.Name, &sketch.YoutubeID, &sketch.Description, &sketch.Tags, &difficulty)
		sketch.Difficulty = internal.Difficulty(difficulty)
		return sketch, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan sketches: %w", err)
	}

	return Build(sketches, s.log), nil
}

// Upsert inserts or refreshes sketches in a single transaction and returns
// the number written.
func (s *Store) Upsert(ctx context.Context, c *Catalog) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, sketch := range c.All() {
		difficulty := sketch.Difficulty
		if difficulty.Any() {
			difficulty = internal.DifficultyMedium
		}
		tags := sketch.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(`
			INSERT INTO sketches (id, name, youtube_id, description, tags, difficulty)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				youtube_id = EXCLUDED.youtube_id,
				description = EXCLUDED.description,
				tags = EXCLUDED.tags,
				difficulty = EXCLUDED.difficulty`,
			sketch.ID, sketch.Name, sketch.YoutubeID, sketch.Description, tags, string(difficulty))
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("upsert sketches: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return c.Len(), nil
}
