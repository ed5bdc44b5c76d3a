package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"decktracker/internal/api"
	"decktracker/internal/apperr"
	"decktracker/internal/constants"
	"decktracker/internal/domain"
	"decktracker/internal/repository"
)

const dateLayout = "2006-01-02"

// ClanSnapshotService captures daily point-in-time clan rosters and
// derives week-over-week deltas from them, working around the upstream
// API only ever exposing current-snapshot data.
type ClanSnapshotService struct {
	client    *api.SupercellClient
	snapshots *repository.SnapshotRepository
	tracked   *repository.TrackedClanRepository
	logger    zerolog.Logger
	now       func() time.Time
}

func NewClanSnapshotService(client *api.SupercellClient, snapshots *repository.SnapshotRepository, tracked *repository.TrackedClanRepository, logger zerolog.Logger) *ClanSnapshotService {
	return &ClanSnapshotService{
		client:    client,
		snapshots: snapshots,
		tracked:   tracked,
		logger:    logger,
		now:       time.Now,
	}
}

// CaptureResult summarizes one capture run.
type CaptureResult struct {
	ClanTag string
	Date    string
	Members int
}

// Capture writes one snapshot row per current clan member for today.
// Idempotent per calendar day: re-capturing overwrites today's rows.
func (s *ClanSnapshotService) Capture(ctx context.Context, clanTag string) (*CaptureResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	clanTag, err := api.ParseTag(clanTag)
	if err != nil {
		return nil, err
	}

	roster, err := s.client.GetClanMembers(ctx, clanTag)
	if err != nil {
		return nil, err
	}

	// War stats come from the river race log; a missing log degrades
	// to zeroed war columns rather than failing the capture.
	war := map[string]warStats{}
	raceLog, err := s.client.GetRiverRaceLog(ctx, clanTag)
	if err != nil {
		s.logger.Warn().Err(err).Str("clan_tag", clanTag).Msg("river race log unavailable, war stats zeroed")
	} else {
		war = warStatsFromLog(clanTag, raceLog)
	}

	capturedAt := s.now().UTC()
	date := capturedAt.Format(dateLayout)

	rows := make([]domain.ClanMemberSnapshot, len(roster.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.CaptureConcurrency)
	for i, member := range roster.Items {
		g.Go(func() error {
			row := domain.ClanMemberSnapshot{
				ClanTag:           clanTag,
				PlayerTag:         member.Tag,
				PlayerName:        member.Name,
				Donations:         member.Donations,
				DonationsReceived: member.DonationsReceived,
				SnapshotDate:      date,
				CapturedAt:        capturedAt,
			}
			if w, ok := war[member.Tag]; ok {
				row.WarAttacks = w.attacks
				row.TotalWarAttacks = w.totalAttacks
				row.Medals = w.medals
			}

			// Per-member battle stats are best-effort: a member whose
			// battle log cannot be fetched gets zeroed counters.
			entries, err := s.client.GetBattleLog(gctx, member.Tag)
			if err != nil {
				s.logger.Warn().Err(err).Str("player_tag", member.Tag).Msg("battle log unavailable for snapshot")
			} else {
				battles := normalizeBattles(entries)
				row.Wins, row.Losses = countWinsLosses(battles)
				row.Battles = row.Wins + row.Losses
				row.RankedBattles, row.RankedWins, row.RankedLosses = countModeRecord(battles, domain.BattleTypePathOfLegend)
				row.LadderBattles, row.LadderWins, row.LadderLosses = countModeRecord(battles, domain.BattleTypeLadder)
			}

			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.snapshots.WriteDay(ctx, rows); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("clan_tag", clanTag).
		Str("date", date).
		Int("members", len(rows)).
		Msg("clan snapshot captured")

	return &CaptureResult{ClanTag: clanTag, Date: date, Members: len(rows)}, nil
}

// Delta compares the snapshots nearest to (without exceeding) the two
// dates. Members present in only one snapshot are reported with
// Partial set rather than dropped; counters that went backwards flag a
// cycle reset with the raw current-cycle row instead of a negative
// delta.
func (s *ClanSnapshotService) Delta(ctx context.Context, clanTag string, from, to time.Time) ([]domain.MemberDelta, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	clanTag, err := api.ParseTag(clanTag)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, apperr.InvalidInput("to date precedes from date")
	}

	fromDate, err := s.snapshots.NearestDateOnOrBefore(ctx, clanTag, from.UTC().Format(dateLayout))
	if err != nil {
		return nil, err
	}
	toDate, err := s.snapshots.NearestDateOnOrBefore(ctx, clanTag, to.UTC().Format(dateLayout))
	if err != nil {
		return nil, err
	}
	if fromDate == "" || toDate == "" {
		return nil, apperr.NotFound("snapshot")
	}

	fromRows, err := s.snapshots.GetDay(ctx, clanTag, fromDate)
	if err != nil {
		return nil, err
	}
	toRows, err := s.snapshots.GetDay(ctx, clanTag, toDate)
	if err != nil {
		return nil, err
	}

	fromByTag := make(map[string]domain.ClanMemberSnapshot, len(fromRows))
	for _, r := range fromRows {
		fromByTag[r.PlayerTag] = r
	}

	deltas := make([]domain.MemberDelta, 0, len(toRows))
	seen := make(map[string]bool, len(toRows))
	for _, cur := range toRows {
		seen[cur.PlayerTag] = true
		old, ok := fromByTag[cur.PlayerTag]
		if !ok {
			deltas = append(deltas, domain.MemberDelta{
				PlayerTag:  cur.PlayerTag,
				PlayerName: cur.PlayerName,
				Partial:    true,
			})
			continue
		}
		deltas = append(deltas, memberDelta(old, cur))
	}

	// Members who left between the two snapshots.
	for _, old := range fromRows {
		if seen[old.PlayerTag] {
			continue
		}
		deltas = append(deltas, domain.MemberDelta{
			PlayerTag:  old.PlayerTag,
			PlayerName: old.PlayerName,
			Partial:    true,
		})
	}

	sort.Slice(deltas, func(i, j int) bool { return deltas[i].PlayerTag < deltas[j].PlayerTag })

	s.logger.Debug().
		Str("clan_tag", clanTag).
		Str("from", fromDate).
		Str("to", toDate).
		Int("members", len(deltas)).
		Msg("snapshot delta computed")

	return deltas, nil
}

// memberDelta subtracts counting fields pairwise. Upstream counters
// are monotonically non-decreasing within a cycle, so any negative
// difference means the cycle reset between the snapshots; the member
// is flagged and the raw current row is attached in place of deltas.
func memberDelta(old, cur domain.ClanMemberSnapshot) domain.MemberDelta {
	d := domain.MemberDelta{
		PlayerTag:         cur.PlayerTag,
		PlayerName:        cur.PlayerName,
		Donations:         cur.Donations - old.Donations,
		DonationsReceived: cur.DonationsReceived - old.DonationsReceived,
		WarAttacks:        cur.WarAttacks - old.WarAttacks,
		Medals:            cur.Medals - old.Medals,
		Battles:           cur.Battles - old.Battles,
		Wins:              cur.Wins - old.Wins,
		Losses:            cur.Losses - old.Losses,
	}
	if d.Donations < 0 || d.DonationsReceived < 0 || d.WarAttacks < 0 ||
		d.Medals < 0 || d.Battles < 0 || d.Wins < 0 || d.Losses < 0 {
		snapshot := cur
		return domain.MemberDelta{
			PlayerTag:    cur.PlayerTag,
			PlayerName:   cur.PlayerName,
			CycleReset:   true,
			CurrentCycle: &snapshot,
		}
	}
	return d
}

// TrackClan registers a clan for daily capture and takes the initial
// snapshot. Re-tracking an already tracked clan is a no-op apart from
// reactivation.
func (s *ClanSnapshotService) TrackClan(ctx context.Context, clanTag string) (*domain.TrackedClan, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	clanTag, err := api.ParseTag(clanTag)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.tracked.Get(ctx, clanTag)
	if err != nil {
		return nil, false, err
	}
	if existing != nil && existing.Active {
		return existing, false, nil
	}

	clanInfo, err := s.client.GetClan(ctx, clanTag)
	if err != nil {
		return nil, false, err
	}

	clan := domain.TrackedClan{
		ClanTag:         clanInfo.Tag,
		ClanName:        clanInfo.Name,
		TrackingStarted: s.now().UTC(),
		Active:          true,
	}
	if err := s.tracked.Track(ctx, clan); err != nil {
		return nil, false, err
	}

	snapshotCreated := true
	if _, err := s.Capture(ctx, clanTag); err != nil {
		s.logger.Warn().Err(err).Str("clan_tag", clanTag).Msg("initial snapshot failed, will retry on next capture")
		snapshotCreated = false
	}

	return &clan, snapshotCreated, nil
}

// TrackingStatus reports whether a clan is tracked, or nil when not.
func (s *ClanSnapshotService) TrackingStatus(ctx context.Context, clanTag string) (*domain.TrackedClan, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	clanTag, err := api.ParseTag(clanTag)
	if err != nil {
		return nil, err
	}
	return s.tracked.Get(ctx, clanTag)
}

// CaptureTracked sweeps every active tracked clan. Failures on one
// clan do not stop the sweep.
func (s *ClanSnapshotService) CaptureTracked(ctx context.Context) ([]CaptureResult, error) {
	clans, err := s.tracked.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]CaptureResult, 0, len(clans))
	for _, clan := range clans {
		res, err := s.Capture(ctx, clan.ClanTag)
		if err != nil {
			s.logger.Error().Err(err).Str("clan_tag", clan.ClanTag).Msg("capture sweep failed for clan")
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

type warStats struct {
	attacks      int
	totalAttacks int
	medals       int
}

// warStatsFromLog sums fame and decks used across the clan's recent
// river races, crediting four attack slots per race per member.
func warStatsFromLog(clanTag string, log *api.RiverRaceLogResponse) map[string]warStats {
	stats := make(map[string]warStats)
	want := api.CanonicalTag(clanTag)

	races := log.Items
	if len(races) > constants.WarLogRaces {
		races = races[:constants.WarLogRaces]
	}
	for _, race := range races {
		for _, standing := range race.Standings {
			if api.CanonicalTag(standing.Clan.Tag) != want {
				continue
			}
			for _, p := range standing.Clan.Participants {
				w := stats[p.Tag]
				w.medals += p.Fame
				w.attacks += p.DecksUsed
				w.totalAttacks += constants.WarAttacksPerRace
				stats[p.Tag] = w
			}
		}
	}
	return stats
}
