package repository

import (
	"context"
	"database/sql"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"decktracker/internal/domain"
)

// SnapshotRepository persists clan member snapshots. Rows are
// write-once per (clan, member, day); a same-day re-capture overwrites
// that day's row instead of duplicating it.
type SnapshotRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSnapshotRepository(db *sql.DB, logger zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{db: db, logger: logger}
}

const upsertSnapshotSQL = `
INSERT INTO clan_member_snapshots (
    id, clan_tag, player_tag, player_name,
    donations, donations_received,
    war_attacks, total_war_attacks, medals,
    battles, wins, losses,
    ranked_battles, ranked_wins, ranked_losses,
    ladder_battles, ladder_wins, ladder_losses,
    snapshot_date, captured_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (clan_tag, player_tag, snapshot_date) DO UPDATE SET
    player_name = excluded.player_name,
    donations = excluded.donations,
    donations_received = excluded.donations_received,
    war_attacks = excluded.war_attacks,
    total_war_attacks = excluded.total_war_attacks,
    medals = excluded.medals,
    battles = excluded.battles,
    wins = excluded.wins,
    losses = excluded.losses,
    ranked_battles = excluded.ranked_battles,
    ranked_wins = excluded.ranked_wins,
    ranked_losses = excluded.ranked_losses,
    ladder_battles = excluded.ladder_battles,
    ladder_wins = excluded.ladder_wins,
    ladder_losses = excluded.ladder_losses,
    captured_at = excluded.captured_at`

// WriteDay stores one capture's rows in a single transaction.
func (r *SnapshotRepository) WriteDay(ctx context.Context, snapshots []domain.ClanMemberSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSnapshotSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range snapshots {
		id := s.ID
		if id == "" {
			id, err = gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate snapshot id: %w", err)
			}
		}
		_, err = stmt.ExecContext(ctx,
			id, s.ClanTag, s.PlayerTag, s.PlayerName,
			s.Donations, s.DonationsReceived,
			s.WarAttacks, s.TotalWarAttacks, s.Medals,
			s.Battles, s.Wins, s.Losses,
			s.RankedBattles, s.RankedWins, s.RankedLosses,
			s.LadderBattles, s.LadderWins, s.LadderLosses,
			s.SnapshotDate, s.CapturedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert snapshot for %s: %w", s.PlayerTag, err)
		}
	}

	return tx.Commit()
}

// NearestDateOnOrBefore returns the latest snapshot date for the clan
// that does not exceed the given date, or "" when none exists.
// Dates are YYYY-MM-DD strings, so lexicographic comparison is safe.
func (r *SnapshotRepository) NearestDateOnOrBefore(ctx context.Context, clanTag, date string) (string, error) {
	var found sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(snapshot_date) FROM clan_member_snapshots
		 WHERE clan_tag = ? AND snapshot_date <= ?`,
		clanTag, date,
	).Scan(&found)
	if err != nil {
		return "", fmt.Errorf("failed to find snapshot date: %w", err)
	}
	if !found.Valid {
		return "", nil
	}
	return found.String, nil
}

// GetDay loads every member row for one (clan, date).
func (r *SnapshotRepository) GetDay(ctx context.Context, clanTag, date string) ([]domain.ClanMemberSnapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, clan_tag, player_tag, player_name,
		        donations, donations_received,
		        war_attacks, total_war_attacks, medals,
		        battles, wins, losses,
		        ranked_battles, ranked_wins, ranked_losses,
		        ladder_battles, ladder_wins, ladder_losses,
		        snapshot_date, captured_at
		 FROM clan_member_snapshots
		 WHERE clan_tag = ? AND snapshot_date = ?
		 ORDER BY player_tag`,
		clanTag, date,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var result []domain.ClanMemberSnapshot
	for rows.Next() {
		var s domain.ClanMemberSnapshot
		if err := rows.Scan(
			&s.ID, &s.ClanTag, &s.PlayerTag, &s.PlayerName,
			&s.Donations, &s.DonationsReceived,
			&s.WarAttacks, &s.TotalWarAttacks, &s.Medals,
			&s.Battles, &s.Wins, &s.Losses,
			&s.RankedBattles, &s.RankedWins, &s.RankedLosses,
			&s.LadderBattles, &s.LadderWins, &s.LadderLosses,
			&s.SnapshotDate, &s.CapturedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// CountDay reports how many member rows exist for one (clan, date).
func (r *SnapshotRepository) CountDay(ctx context.Context, clanTag, date string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clan_member_snapshots
		 WHERE clan_tag = ? AND snapshot_date = ?`,
		clanTag, date,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}
