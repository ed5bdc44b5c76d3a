package service

import (
	"context"

	"github.com/rs/zerolog"

	"decktracker/internal/api"
	"decktracker/internal/constants"
	"decktracker/internal/domain"
)

const recentBattleCount = 10

// PlayerStatsService aggregates a player's profile, win/loss record,
// recent battles and most-used decks into one view.
type PlayerStatsService struct {
	client *api.SupercellClient
	logger zerolog.Logger
}

func NewPlayerStatsService(client *api.SupercellClient, logger zerolog.Logger) *PlayerStatsService {
	return &PlayerStatsService{client: client, logger: logger}
}

func (s *PlayerStatsService) Stats(ctx context.Context, tag string) (*domain.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	tag, err := api.ParseTag(tag)
	if err != nil {
		return nil, err
	}

	player, err := s.client.GetPlayer(ctx, tag)
	if err != nil {
		return nil, err
	}

	entries, err := s.client.GetBattleLog(ctx, tag)
	if err != nil {
		return nil, err
	}

	battles := normalizeBattles(entries)
	wins, losses := countWinsLosses(battles)
	total := wins + losses

	winRate := 0.0
	if total > 0 {
		winRate = float64(wins) / float64(total) * 100
	}

	recent := battles
	if len(recent) > recentBattleCount {
		recent = recent[:recentBattleCount]
	}

	// Top decks consider competitive 1v1 modes only.
	competitive := make([]domain.Battle, 0, len(battles))
	for _, b := range battles {
		if b.Type != domain.BattleTypePathOfLegend && b.Type != domain.BattleTypeLadder {
			continue
		}
		if !validDeck(b.Deck) {
			continue
		}
		competitive = append(competitive, b)
	}

	s.logger.Info().
		Str("tag", tag).
		Int("battles", len(battles)).
		Int("wins", wins).
		Int("losses", losses).
		Msg("player stats computed")

	return &domain.PlayerStats{
		Tag:           player.Tag,
		Name:          player.Name,
		Trophies:      player.Trophies,
		BestTrophies:  player.BestTrophies,
		Level:         player.ExpLevel,
		Arena:         player.Arena.Name,
		ClanName:      player.Clan.Name,
		ClanTag:       player.Clan.Tag,
		TotalBattles:  total,
		Wins:          wins,
		Losses:        losses,
		WinRate:       winRate,
		RecentBattles: recent,
		TopDecks:      rankDecks(competitive),
	}, nil
}
