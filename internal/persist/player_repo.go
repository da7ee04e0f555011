package persist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type PlayerRow struct {
	SteamID      string
	PasswordHash string
	Name         string
	PlayTime     int64 // accumulated seconds
	LastIP       string
	Banned       bool
	CreatedAt    time.Time
	LastSeenAt   *time.Time
}

type PlayerRepo struct {
	db *DB
}

func NewPlayerRepo(db *DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

func (r *PlayerRepo) Load(ctx context.Context, steamID string) (*PlayerRow, error) {
	row := &PlayerRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT steamid, password_hash, name, play_time, COALESCE(last_ip,''), banned, created_at, last_seen_at
		 FROM players WHERE steamid = $1`, steamID,
	).Scan(
		&row.SteamID, &row.PasswordHash, &row.Name, &row.PlayTime,
		&row.LastIP, &row.Banned, &row.CreatedAt, &row.LastSeenAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *PlayerRepo) Create(ctx context.Context, steamID, rawPassword, name, ip string) (*PlayerRow, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	row := &PlayerRow{
		SteamID:      steamID,
		PasswordHash: string(hash),
		Name:         name,
		LastIP:       ip,
		CreatedAt:    now,
		LastSeenAt:   &now,
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO players (steamid, password_hash, name, last_ip, last_seen_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		row.SteamID, row.PasswordHash, row.Name, row.LastIP, row.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *PlayerRepo) ValidatePassword(hash string, rawPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawPassword)) == nil
}

func (r *PlayerRepo) TouchSeen(ctx context.Context, steamID, ip string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE players SET last_seen_at = NOW(), last_ip = $2 WHERE steamid = $1`,
		steamID, ip,
	)
	return err
}

// AddPlayTime accumulates a finished session's duration.
func (r *PlayerRepo) AddPlayTime(ctx context.Context, steamID string, d time.Duration) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE players SET play_time = play_time + $2 WHERE steamid = $1`,
		steamID, int64(d.Seconds()),
	)
	return err
}
