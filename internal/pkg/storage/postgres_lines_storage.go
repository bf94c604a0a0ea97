package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vodeneev/hotstreakline/internal/pkg/config"
	"github.com/Vodeneev/hotstreakline/internal/pkg/models"
	_ "github.com/lib/pq"
)

// Ensure PostgresLineStorage implements LineStorage
var _ LineStorage = (*PostgresLineStorage)(nil)

// PostgresLineStorage хранит снапшот декодированных линий по игрокам и
// дайджесты блобов для дедупликации между прогонами.
type PostgresLineStorage struct {
	db *sql.DB
}

func NewPostgresLineStorage(cfg *config.PostgresConfig) (*PostgresLineStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresLineStorage{db: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL line storage initialized successfully")
	return s, nil
}

func (s *PostgresLineStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS market_lines (
		id SERIAL PRIMARY KEY,
		line_id VARCHAR(500) NOT NULL,
		player_name VARCHAR(500) NOT NULL,
		market VARCHAR(200),
		decimal_odds DECIMAL(10, 4),
		recorded_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE(line_id, player_name)
	);

	CREATE TABLE IF NOT EXISTS blob_digests (
		player_name VARCHAR(500) PRIMARY KEY,
		digest VARCHAR(16) NOT NULL,
		recorded_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_market_lines_player ON market_lines(player_name);
	CREATE INDEX IF NOT EXISTS idx_market_lines_recorded_at ON market_lines(recorded_at);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// StoreLines сохраняет записи прогона. UPSERT по (line_id, player_name):
// одна строка на линию, обновляется каждым прогоном. Записи без id
// пропускаются — без ключа их не на что натянуть.
func (s *PostgresLineStorage) StoreLines(ctx context.Context, lines []models.MarketLine, recordedAt time.Time) error {
	query := `
	INSERT INTO market_lines (line_id, player_name, market, decimal_odds, recorded_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (line_id, player_name)
	DO UPDATE SET market = EXCLUDED.market, decimal_odds = EXCLUDED.decimal_odds, recorded_at = EXCLUDED.recorded_at
	`

	stored := 0
	for _, line := range lines {
		if line.ID == nil {
			continue
		}
		var market sql.NullString
		if line.Market != nil {
			market = sql.NullString{String: *line.Market, Valid: true}
		}
		var odds sql.NullFloat64
		if line.DecimalOdds != nil {
			odds = sql.NullFloat64{Float64: *line.DecimalOdds, Valid: true}
		}
		if _, err := s.db.ExecContext(ctx, query, *line.ID, line.PlayerName, market, odds, recordedAt); err != nil {
			return fmt.Errorf("failed to store line %s: %w", *line.ID, err)
		}
		stored++
	}

	slog.Info("Market lines stored", "stored", stored, "total", len(lines))
	return nil
}

func (s *PostgresLineStorage) LastBlobDigest(ctx context.Context, player string) (string, error) {
	var digest string
	err := s.db.QueryRowContext(ctx,
		`SELECT digest FROM blob_digests WHERE player_name = $1`, player).Scan(&digest)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query blob digest: %w", err)
	}
	return digest, nil
}

func (s *PostgresLineStorage) StoreBlobDigest(ctx context.Context, player, digest string, recordedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO blob_digests (player_name, digest, recorded_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (player_name)
	DO UPDATE SET digest = EXCLUDED.digest, recorded_at = EXCLUDED.recorded_at
	`, player, digest, recordedAt)
	if err != nil {
		return fmt.Errorf("failed to store blob digest: %w", err)
	}
	return nil
}

func (s *PostgresLineStorage) Close() error {
	return s.db.Close()
}
