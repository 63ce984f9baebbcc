package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore persists matches and moves to PostgreSQL. Schema:
//
//	matches(match_id PK, player1_id, player2_id, mode, status,
//	        fen_current, last_move_uci, current_ply,
//	        p1_clock_ms, p2_clock_ms, started_at, finished_at)
//	moves(match_id, ply, position, move_code, created_at,
//	      UNIQUE(match_id, ply))
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool against databaseURL and verifies
// connectivity.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *PostgresStore) CreateMatch(ctx context.Context, matchID, player1ID, player2ID, mode string) error {
	q := `INSERT INTO matches (match_id, player1_id, player2_id, mode, status, started_at)
	      VALUES ($1, $2, $3, $4, 'IN_PROGRESS', NOW())
	      ON CONFLICT (match_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, q, matchID, player1ID, player2ID, mode)

	return err
}

func (s *PostgresStore) LoadMatchConfig(ctx context.Context, matchID string) (MatchConfig, error) {
	q := `SELECT mode, player1_id, player2_id FROM matches WHERE match_id = $1`

	var cfg MatchConfig
	err := s.db.QueryRowContext(ctx, q, matchID).Scan(&cfg.Mode, &cfg.Player1ID, &cfg.Player2ID)
	if errors.Is(err, sql.ErrNoRows) {
		return MatchConfig{}, ErrNotFound
	}
	if err != nil {
		return MatchConfig{}, err
	}

	return cfg, nil
}

func (s *PostgresStore) SaveMove(ctx context.Context, matchID, position, moveCode string, ply int) error {
	q := `INSERT INTO moves (match_id, ply, position, move_code, created_at)
	      VALUES ($1, $2, $3, $4, NOW())
	      ON CONFLICT (match_id, ply) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, q, matchID, ply, position, moveCode); err != nil {
		return err
	}

	q = `UPDATE matches SET fen_current = $2, last_move_uci = $3, current_ply = $4 WHERE match_id = $1`
	_, err := s.db.ExecContext(ctx, q, matchID, position, moveCode, ply)

	return err
}

func (s *PostgresStore) SaveMatchResult(ctx context.Context, matchID, status string, finishedAt time.Time) error {
	q := `UPDATE matches SET status = $2, finished_at = $3 WHERE match_id = $1`

	_, err := s.db.ExecContext(ctx, q, matchID, status, finishedAt)

	return err
}

func (s *PostgresStore) SavePlayerClocks(ctx context.Context, matchID string, p1Remaining, p2Remaining *time.Duration) error {
	q := `UPDATE matches SET p1_clock_ms = $2, p2_clock_ms = $3 WHERE match_id = $1`

	_, err := s.db.ExecContext(ctx, q, matchID, durationMs(p1Remaining), durationMs(p2Remaining))

	return err
}

func durationMs(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: d.Milliseconds(), Valid: true}
}
