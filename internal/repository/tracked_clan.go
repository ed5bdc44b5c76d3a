package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"decktracker/internal/domain"
)

type TrackedClanRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewTrackedClanRepository(db *sql.DB, logger zerolog.Logger) *TrackedClanRepository {
	return &TrackedClanRepository{db: db, logger: logger}
}

func (r *TrackedClanRepository) Track(ctx context.Context, clan domain.TrackedClan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tracked_clans (clan_tag, clan_name, tracking_started, is_active)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (clan_tag) DO UPDATE SET
		     clan_name = excluded.clan_name,
		     is_active = TRUE`,
		clan.ClanTag, clan.ClanName, clan.TrackingStarted, clan.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to track clan %s: %w", clan.ClanTag, err)
	}
	return nil
}

// Get returns the tracked clan or nil when the clan is not tracked.
func (r *TrackedClanRepository) Get(ctx context.Context, clanTag string) (*domain.TrackedClan, error) {
	var clan domain.TrackedClan
	err := r.db.QueryRowContext(ctx,
		`SELECT clan_tag, clan_name, tracking_started, is_active
		 FROM tracked_clans WHERE clan_tag = ?`,
		clanTag,
	).Scan(&clan.ClanTag, &clan.ClanName, &clan.TrackingStarted, &clan.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracked clan: %w", err)
	}
	return &clan, nil
}

func (r *TrackedClanRepository) ListActive(ctx context.Context) ([]domain.TrackedClan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT clan_tag, clan_name, tracking_started, is_active
		 FROM tracked_clans WHERE is_active ORDER BY clan_tag`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked clans: %w", err)
	}
	defer rows.Close()

	var result []domain.TrackedClan
	for rows.Next() {
		var clan domain.TrackedClan
		if err := rows.Scan(&clan.ClanTag, &clan.ClanName, &clan.TrackingStarted, &clan.Active); err != nil {
			return nil, fmt.Errorf("failed to scan tracked clan: %w", err)
		}
		result = append(result, clan)
	}
	return result, rows.Err()
}
