package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"decktracker/internal/api"
	"decktracker/internal/apperr"
	"decktracker/internal/constants"
	"decktracker/internal/domain"
	"decktracker/internal/fuzzy"
)

// NameResolver turns a human-typed (often OCR-derived) player name and
// clan name into a canonical player tag by fuzzy-matching against the
// clan roster.
type NameResolver struct {
	client *api.SupercellClient
	logger zerolog.Logger
}

func NewNameResolver(client *api.SupercellClient, logger zerolog.Logger) *NameResolver {
	return &NameResolver{client: client, logger: logger}
}

// Resolve searches clans by name, picks one deterministically, and
// matches the player name against its roster.
func (r *NameResolver) Resolve(ctx context.Context, playerName, clanName string) (*domain.ResolvedPlayer, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	playerName = strings.TrimSpace(playerName)
	clanName = strings.TrimSpace(clanName)
	if playerName == "" {
		return nil, apperr.InvalidInput("player name cannot be empty")
	}
	if clanName == "" {
		return nil, apperr.InvalidInput("clan name cannot be empty")
	}

	search, err := r.client.SearchClans(ctx, clanName, constants.ClanSearchLimit)
	if err != nil {
		return nil, err
	}
	if len(search.Items) == 0 {
		r.logger.Info().Str("clan_name", clanName).Msg("no clans matched search")
		return nil, apperr.NotFound("clan")
	}

	clan := pickClan(clanName, search.Items)
	r.logger.Debug().
		Str("clan_name", clanName).
		Str("clan_tag", clan.Tag).
		Int("candidates", len(search.Items)).
		Msg("clan selected")

	return r.matchInRoster(ctx, playerName, clan.Tag)
}

// ResolveInClan matches a player name directly inside a known clan tag.
func (r *NameResolver) ResolveInClan(ctx context.Context, playerName, clanTag string) (*domain.ResolvedPlayer, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, apperr.InvalidInput("player name cannot be empty")
	}
	clanTag, err := api.ParseTag(clanTag)
	if err != nil {
		return nil, err
	}

	return r.matchInRoster(ctx, playerName, clanTag)
}

func (r *NameResolver) matchInRoster(ctx context.Context, playerName, clanTag string) (*domain.ResolvedPlayer, error) {
	roster, err := r.client.GetClanMembers(ctx, clanTag)
	if err != nil {
		return nil, err
	}
	if len(roster.Items) == 0 {
		return nil, apperr.NotFound("player")
	}

	best, score := bestRosterMatch(playerName, roster.Items)
	if score < constants.ResolveMinConfidence {
		r.logger.Info().
			Str("player_name", playerName).
			Str("clan_tag", clanTag).
			Int("best_score", score).
			Msg("no roster member above confidence threshold")
		return nil, apperr.NotFound("player")
	}

	r.logger.Info().
		Str("player_name", playerName).
		Str("matched", best.Name).
		Str("tag", best.Tag).
		Int("confidence", score).
		Msg("player resolved")

	return &domain.ResolvedPlayer{
		Tag:        best.Tag,
		Name:       best.Name,
		Confidence: score,
	}, nil
}

// pickClan resolves clan-name ambiguity: an exact case-insensitive
// match wins, otherwise the first result in upstream order. Policy
// decision; never surfaced as a multi-choice.
func pickClan(query string, clans []api.ClanSummary) api.ClanSummary {
	for _, c := range clans {
		if strings.EqualFold(c.Name, query) {
			return c
		}
	}
	return clans[0]
}

// bestRosterMatch scores every member and keeps the highest. Ties are
// broken by exact-match preference (Score already maps exact to 100,
// above any partial), then roster order: a later member must strictly
// beat the incumbent.
func bestRosterMatch(query string, members []api.ClanMember) (api.ClanMember, int) {
	best := members[0]
	bestScore := fuzzy.Score(query, best.Name)
	for _, m := range members[1:] {
		if s := fuzzy.Score(query, m.Name); s > bestScore {
			best = m
			bestScore = s
		}
	}
	return best, bestScore
}
