package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"github.com/princekumarofficial/songs-service/internal/catalog"
	"github.com/princekumarofficial/songs-service/internal/config"
	"github.com/princekumarofficial/songs-service/internal/types/songs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// uniqueViolation is the SQLSTATE Postgres reports for unique constraint
// violations
const uniqueViolation = "23505"

const songColumns = `id, title, artist, duration_seconds, play_count, external_id,
	file_url, owner_id, genre, tags, created_at, updated_at`

type Postgres struct {
	Db *sql.DB
}

// DSN builds a lib/pq connection string from the config
func DSN(cfg *config.PQSQL) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// NewPostgres connects to the database and applies pending migrations
func NewPostgres(cfg *config.Config) (*Postgres, error) {
	return Open(DSN(&cfg.PGSQL))
}

// Open connects with a raw connection string and applies pending migrations
func Open(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pg := &Postgres{Db: db}
	if err := pg.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("Connected to Postgres database")
	return pg, nil
}

// Migrate applies the embedded schema migrations
func (p *Postgres) Migrate() error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratepg.WithInstance(p.Db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.Db.Close()
}

// Create inserts a song in a single statement so that a row never exists
// without its storage reference.
func (p *Postgres) Create(ctx context.Context, s songs.NewSong) (songs.Song, error) {
	query := fmt.Sprintf(`
	INSERT INTO songs (title, artist, duration_seconds, external_id, file_url, owner_id, genre, tags)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING %s
	`, songColumns)

	row := p.Db.QueryRowContext(ctx, query,
		s.Title, s.Artist, s.DurationSeconds, s.StorageRef.ExternalID, s.StorageRef.URL,
		s.OwnerID, string(s.Genre), pq.Array(tagStrings(songs.NormalizeTags(s.Tags))),
	)
	song, err := scanSong(row)
	if err != nil {
		return songs.Song{}, translate(err)
	}
	return song, nil
}

func (p *Postgres) GetByID(ctx context.Context, id int64) (songs.Song, error) {
	query := fmt.Sprintf(`SELECT %s FROM songs WHERE id = $1`, songColumns)

	song, err := scanSong(p.Db.QueryRowContext(ctx, query, id))
	if err != nil {
		return songs.Song{}, translate(err)
	}
	return song, nil
}

func (p *Postgres) UpdateByID(ctx context.Context, id int64, patch songs.Patch) (songs.Song, error) {
	if patch.Empty() {
		return p.GetByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Artist != nil {
		set("artist", *patch.Artist)
	}
	if patch.Genre != nil {
		set("genre", string(*patch.Genre))
	}
	if patch.Tags != nil {
		set("tags", pq.Array(tagStrings(songs.NormalizeTags(*patch.Tags))))
	}
	args = append(args, id)

	query := fmt.Sprintf(`
	UPDATE songs SET %s, updated_at = clock_timestamp()
	WHERE id = $%d
	RETURNING %s
	`, strings.Join(sets, ", "), len(args), songColumns)

	song, err := scanSong(p.Db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return songs.Song{}, translate(err)
	}
	return song, nil
}

func (p *Postgres) DeleteByID(ctx context.Context, id int64) (songs.Song, error) {
	query := fmt.Sprintf(`DELETE FROM songs WHERE id = $1 RETURNING %s`, songColumns)

	song, err := scanSong(p.Db.QueryRowContext(ctx, query, id))
	if err != nil {
		return songs.Song{}, translate(err)
	}
	return song, nil
}

func (p *Postgres) IncrementPlayCount(ctx context.Context, id int64) (songs.Song, error) {
	query := fmt.Sprintf(`
	UPDATE songs SET play_count = play_count + 1
	WHERE id = $1
	RETURNING %s
	`, songColumns)

	song, err := scanSong(p.Db.QueryRowContext(ctx, query, id))
	if err != nil {
		return songs.Song{}, translate(err)
	}
	return song, nil
}

// Find runs a keyset query: filter, total order, limit
func (p *Postgres) Find(ctx context.Context, pred catalog.Predicate, sort []catalog.SortTerm, limit int) ([]songs.Song, error) {
	query, args, err := buildFind(pred, sort, limit)
	if err != nil {
		return nil, err
	}

	rows, err := p.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var result []songs.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		result = append(result, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate songs: %w", err)
	}
	return result, nil
}

// SampleOne picks one matching song at random
func (p *Postgres) SampleOne(ctx context.Context, pred catalog.Predicate) (*songs.Song, error) {
	query, args, err := buildSample(pred)
	if err != nil {
		return nil, err
	}

	song, err := scanSong(p.Db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sample song: %w", err)
	}
	return &song, nil
}

func (p *Postgres) KnownExternalIDs(ctx context.Context, externalIDs []string) (map[string]bool, error) {
	known := make(map[string]bool)
	if len(externalIDs) == 0 {
		return known, nil
	}

	rows, err := p.Db.QueryContext(ctx,
		`SELECT external_id FROM songs WHERE external_id = ANY($1)`, pq.Array(externalIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to look up external ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan external id: %w", err)
		}
		known[id] = true
	}
	return known, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSong(row scanner) (songs.Song, error) {
	var (
		s     songs.Song
		genre string
		tags  []string
	)
	err := row.Scan(
		&s.ID, &s.Title, &s.Artist, &s.DurationSeconds, &s.PlayCount, &s.StorageRef.ExternalID,
		&s.StorageRef.URL, &s.OwnerID, &genre, pq.Array(&tags), &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return songs.Song{}, err
	}
	s.Genre = songs.Genre(genre)
	s.Tags = make([]songs.Tag, len(tags))
	for i, t := range tags {
		s.Tags[i] = songs.Tag(t)
	}
	return s, nil
}

// translate maps driver errors onto the catalog error taxonomy
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", pqErr.Constraint, catalog.ErrConflict)
	}
	return err
}

func tagStrings(tags []songs.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}
