package service

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"decktracker/internal/api"
	"decktracker/internal/apperr"
	"decktracker/internal/constants"
	"decktracker/internal/domain"
)

// DeckPredictor ranks the decks a player has recently used by
// frequency within a game mode.
type DeckPredictor struct {
	client *api.SupercellClient
	logger zerolog.Logger
}

func NewDeckPredictor(client *api.SupercellClient, logger zerolog.Logger) *DeckPredictor {
	return &DeckPredictor{client: client, logger: logger}
}

// Predict returns the top-3 decks for the player in the given mode.
// Zero filtered battles yields an empty list, not an error: the caller
// distinguishes "player found, no data" from "player not found".
func (p *DeckPredictor) Predict(ctx context.Context, tag, mode string) ([]domain.RankedDeck, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	tag, err := api.ParseTag(tag)
	if err != nil {
		return nil, err
	}
	if !validMode(mode) {
		return nil, apperr.InvalidInput("game mode must be one of: ladder, ranked, all")
	}

	entries, err := p.client.GetBattleLog(ctx, tag)
	if err != nil {
		return nil, err
	}

	battles := normalizeBattles(entries)
	filtered, dropped := filterForMode(battles, mode)
	if dropped > 0 {
		p.logger.Debug().
			Str("tag", tag).
			Int("dropped", dropped).
			Msg("battles with malformed decks excluded from ranking")
	}

	decks := rankDecks(filtered)
	p.logger.Info().
		Str("tag", tag).
		Str("mode", mode).
		Int("battles", len(filtered)).
		Int("decks", len(decks)).
		Msg("deck prediction computed")

	return decks, nil
}

func validMode(mode string) bool {
	switch mode {
	case domain.ModeLadder, domain.ModeRanked, domain.ModeAll:
		return true
	}
	return false
}

// filterForMode keeps battles of the requested mode with well-formed
// decks. Malformed decks are dropped individually and reported via the
// second return value; they never count toward the ranking denominator.
func filterForMode(battles []domain.Battle, mode string) ([]domain.Battle, int) {
	var want string
	switch mode {
	case domain.ModeRanked:
		want = domain.BattleTypePathOfLegend
	case domain.ModeLadder:
		want = domain.BattleTypeLadder
	}

	filtered := make([]domain.Battle, 0, len(battles))
	dropped := 0
	for _, b := range battles {
		if want != "" && b.Type != want {
			continue
		}
		if !validDeck(b.Deck) {
			dropped++
			continue
		}
		filtered = append(filtered, b)
	}
	return filtered, dropped
}

// rankDecks groups battles by deck signature and ranks the groups by
// usage confidence, ties broken by most recent battle. At most
// TopDeckCount entries are returned, each carrying the card order as
// first observed in the log rather than the sorted canonical order.
func rankDecks(battles []domain.Battle) []domain.RankedDeck {
	if len(battles) == 0 {
		return []domain.RankedDeck{}
	}

	groups := make(map[domain.DeckSignature]*domain.RankedDeck)
	order := make([]domain.DeckSignature, 0)
	for _, b := range battles {
		sig := domain.NewDeckSignature(b.Deck)
		g, ok := groups[sig]
		if !ok {
			g = &domain.RankedDeck{
				Signature: sig,
				Cards:     b.Deck,
			}
			groups[sig] = g
			order = append(order, sig)
		}
		g.Battles++
		if b.Time.After(g.LastPlayed) {
			g.LastPlayed = b.Time
		}
	}

	total := float64(len(battles))
	ranked := make([]domain.RankedDeck, 0, len(order))
	for _, sig := range order {
		g := groups[sig]
		g.UsageConfidence = float64(g.Battles) / total
		ranked = append(ranked, *g)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].UsageConfidence != ranked[j].UsageConfidence {
			return ranked[i].UsageConfidence > ranked[j].UsageConfidence
		}
		return ranked[i].LastPlayed.After(ranked[j].LastPlayed)
	})

	if len(ranked) > constants.TopDeckCount {
		ranked = ranked[:constants.TopDeckCount]
	}
	return ranked
}
