package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"decktracker/internal/domain"
)

// Orchestrator is the only component the transport layer talks to. It
// composes resolution and prediction for the player flow and fronts
// the snapshot store for the clan flow. It never retries; retries live
// in the upstream client.
type Orchestrator struct {
	resolver  *NameResolver
	predictor *DeckPredictor
	stats     *PlayerStatsService
	clans     *ClanSnapshotService
	logger    zerolog.Logger
}

func NewOrchestrator(resolver *NameResolver, predictor *DeckPredictor, stats *PlayerStatsService, clans *ClanSnapshotService, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		resolver:  resolver,
		predictor: predictor,
		stats:     stats,
		clans:     clans,
		logger:    logger,
	}
}

// Prediction bundles the resolved identity with the ranked decks.
type Prediction struct {
	Player domain.ResolvedPlayer
	Decks  []domain.RankedDeck
}

// ResolveAndPredict runs resolution, then prediction, sequentially:
// prediction needs the canonical tag resolution produces. Errors from
// either stage propagate unchanged.
func (o *Orchestrator) ResolveAndPredict(ctx context.Context, playerName, clanName, mode string) (*Prediction, error) {
	player, err := o.resolver.Resolve(ctx, playerName, clanName)
	if err != nil {
		return nil, err
	}

	decks, err := o.predictor.Predict(ctx, player.Tag, mode)
	if err != nil {
		return nil, err
	}

	return &Prediction{Player: *player, Decks: decks}, nil
}

// ResolveInClanAndPredict is the variant for a known clan tag.
func (o *Orchestrator) ResolveInClanAndPredict(ctx context.Context, playerName, clanTag, mode string) (*Prediction, error) {
	player, err := o.resolver.ResolveInClan(ctx, playerName, clanTag)
	if err != nil {
		return nil, err
	}

	decks, err := o.predictor.Predict(ctx, player.Tag, mode)
	if err != nil {
		return nil, err
	}

	return &Prediction{Player: *player, Decks: decks}, nil
}

func (o *Orchestrator) PredictByTag(ctx context.Context, tag, mode string) ([]domain.RankedDeck, error) {
	return o.predictor.Predict(ctx, tag, mode)
}

func (o *Orchestrator) PlayerStats(ctx context.Context, tag string) (*domain.PlayerStats, error) {
	return o.stats.Stats(ctx, tag)
}

func (o *Orchestrator) CaptureSnapshot(ctx context.Context, clanTag string) (*CaptureResult, error) {
	return o.clans.Capture(ctx, clanTag)
}

func (o *Orchestrator) ClanDelta(ctx context.Context, clanTag string, from, to time.Time) ([]domain.MemberDelta, error) {
	return o.clans.Delta(ctx, clanTag, from, to)
}

func (o *Orchestrator) TrackClan(ctx context.Context, clanTag string) (*domain.TrackedClan, bool, error) {
	return o.clans.TrackClan(ctx, clanTag)
}

func (o *Orchestrator) TrackingStatus(ctx context.Context, clanTag string) (*domain.TrackedClan, error) {
	return o.clans.TrackingStatus(ctx, clanTag)
}

func (o *Orchestrator) CaptureTracked(ctx context.Context) ([]CaptureResult, error) {
	return o.clans.CaptureTracked(ctx)
}
