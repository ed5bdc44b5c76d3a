package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"decktracker/internal/api"
	"decktracker/internal/apperr"
	"decktracker/internal/domain"
)

var baseTime = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

func TestRankDecksConfidenceAndOrder(t *testing.T) {
	battles := repeatBattles(domain.BattleTypePathOfLegend, deckA, 6, baseTime)
	battles = append(battles, repeatBattles(domain.BattleTypePathOfLegend, deckB, 3, baseTime)...)
	battles = append(battles, repeatBattles(domain.BattleTypePathOfLegend, deckC, 1, baseTime)...)

	ranked := rankDecks(battles)
	if len(ranked) != 3 {
		t.Fatalf("ranked decks = %d, want 3", len(ranked))
	}

	wantConfidence := []float64{0.6, 0.3, 0.1}
	wantSigs := []domain.DeckSignature{
		domain.NewDeckSignature(deckA),
		domain.NewDeckSignature(deckB),
		domain.NewDeckSignature(deckC),
	}
	for i, deck := range ranked {
		if deck.UsageConfidence != wantConfidence[i] {
			t.Errorf("deck %d confidence = %v, want %v", i, deck.UsageConfidence, wantConfidence[i])
		}
		if deck.Signature != wantSigs[i] {
			t.Errorf("deck %d signature = %q, want %q", i, deck.Signature, wantSigs[i])
		}
	}
}

func TestRankDecksCapsAtTopThree(t *testing.T) {
	battles := repeatBattles(domain.BattleTypePathOfLegend, deckA, 4, baseTime)
	battles = append(battles, repeatBattles(domain.BattleTypePathOfLegend, deckB, 3, baseTime)...)
	battles = append(battles, repeatBattles(domain.BattleTypePathOfLegend, deckC, 2, baseTime)...)
	battles = append(battles, battleAt(domain.BattleTypePathOfLegend, deckD, baseTime))

	ranked := rankDecks(battles)
	if len(ranked) != 3 {
		t.Fatalf("ranked decks = %d, want 3", len(ranked))
	}
	for _, deck := range ranked {
		if deck.Signature == domain.NewDeckSignature(deckD) {
			t.Errorf("fourth-place deck made the top three")
		}
	}
}

func TestRankDecksRecencyBreaksTies(t *testing.T) {
	battles := []domain.Battle{
		battleAt(domain.BattleTypePathOfLegend, deckA, baseTime),
		battleAt(domain.BattleTypePathOfLegend, deckB, baseTime.Add(time.Hour)),
	}

	ranked := rankDecks(battles)
	if len(ranked) != 2 {
		t.Fatalf("ranked decks = %d, want 2", len(ranked))
	}
	if ranked[0].Signature != domain.NewDeckSignature(deckB) {
		t.Errorf("tie not broken by recency: first deck is %q", ranked[0].Signature)
	}
}

func TestRankDecksKeepsObservedCardOrder(t *testing.T) {
	// Same deck, played with cards reported in a different order the
	// second time. Output shows the first-observed order.
	reordered := []string{"Cannon", "Minions", "Musketeer", "Giant", "Zap", "Fireball", "Archers", "Knight"}
	battles := []domain.Battle{
		battleAt(domain.BattleTypePathOfLegend, deckA, baseTime),
		battleAt(domain.BattleTypePathOfLegend, reordered, baseTime.Add(time.Minute)),
	}

	ranked := rankDecks(battles)
	if len(ranked) != 1 {
		t.Fatalf("ranked decks = %d, want 1 (same signature)", len(ranked))
	}
	if ranked[0].Battles != 2 {
		t.Errorf("battles = %d, want 2", ranked[0].Battles)
	}
	for i, card := range ranked[0].Cards {
		if card != deckA[i] {
			t.Fatalf("cards = %v, want first-observed order %v", ranked[0].Cards, deckA)
		}
	}
}

func TestRankDecksEmptyInput(t *testing.T) {
	ranked := rankDecks(nil)
	if ranked == nil {
		t.Fatal("ranked = nil, want empty slice")
	}
	if len(ranked) != 0 {
		t.Errorf("ranked decks = %d, want 0", len(ranked))
	}
}

func TestFilterForModeExcludesMalformedFromDenominator(t *testing.T) {
	sevenCards := deckA[:7]
	battles := []domain.Battle{
		battleAt(domain.BattleTypePathOfLegend, deckA, baseTime),
		battleAt(domain.BattleTypePathOfLegend, deckA, baseTime),
		battleAt(domain.BattleTypePathOfLegend, sevenCards, baseTime),
		battleAt(domain.BattleTypeLadder, deckB, baseTime),
	}

	filtered, dropped := filterForMode(battles, domain.ModeRanked)
	if len(filtered) != 2 {
		t.Errorf("filtered = %d, want 2", len(filtered))
	}
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}

	ranked := rankDecks(filtered)
	if len(ranked) != 1 || ranked[0].UsageConfidence != 1.0 {
		t.Errorf("malformed battle leaked into the confidence denominator: %+v", ranked)
	}
}

func TestFilterForModeAllKeepsEveryType(t *testing.T) {
	battles := []domain.Battle{
		battleAt(domain.BattleTypePathOfLegend, deckA, baseTime),
		battleAt(domain.BattleTypeLadder, deckB, baseTime),
		battleAt(domain.BattleTypeChallenge, deckC, baseTime),
	}

	filtered, dropped := filterForMode(battles, domain.ModeAll)
	if len(filtered) != 3 || dropped != 0 {
		t.Errorf("filtered = %d dropped = %d, want all 3 kept", len(filtered), dropped)
	}
}

func TestValidMode(t *testing.T) {
	for _, mode := range []string{domain.ModeLadder, domain.ModeRanked, domain.ModeAll} {
		if !validMode(mode) {
			t.Errorf("validMode(%q) = false", mode)
		}
	}
	for _, mode := range []string{"", "Ranked", "2v2"} {
		if validMode(mode) {
			t.Errorf("validMode(%q) = true", mode)
		}
	}
}

func TestPredictValidatesInput(t *testing.T) {
	var called bool
	client := newTestSupercell(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	p := NewDeckPredictor(client, zerolog.Nop())

	if _, err := p.Predict(context.Background(), "  ", domain.ModeRanked); !apperr.Is(err, apperr.KindInvalidInput) {
		t.Errorf("empty tag: err = %v, want InvalidInput", err)
	}
	if _, err := p.Predict(context.Background(), "#ABC", "2v2"); !apperr.Is(err, apperr.KindInvalidInput) {
		t.Errorf("bad mode: err = %v, want InvalidInput", err)
	}
	if called {
		t.Error("upstream called despite invalid input")
	}
}

func TestPredictEndToEnd(t *testing.T) {
	log := api.BattleLogResponse{
		battleLogEntry(domain.BattleTypePathOfLegend, "20240115T093042.000Z", deckA),
		battleLogEntry(domain.BattleTypePathOfLegend, "20240115T100000.000Z", deckA),
		battleLogEntry(domain.BattleTypeLadder, "20240115T110000.000Z", deckB),
	}
	body, err := json.Marshal(log)
	if err != nil {
		t.Fatalf("marshal battle log: %v", err)
	}

	client := newTestSupercell(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	p := NewDeckPredictor(client, zerolog.Nop())

	decks, err := p.Predict(context.Background(), "#ABC", domain.ModeRanked)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(decks) != 1 {
		t.Fatalf("decks = %d, want 1 (ladder battle filtered out)", len(decks))
	}
	if decks[0].UsageConfidence != 1.0 || decks[0].Battles != 2 {
		t.Errorf("deck = %+v, want confidence 1.0 over 2 battles", decks[0])
	}
}

func battleLogEntry(battleType, battleTime string, deck []string) api.BattleLogEntry {
	cards := make([]api.Card, len(deck))
	for i, name := range deck {
		cards[i] = api.Card{Name: name}
	}
	return api.BattleLogEntry{
		Type:       battleType,
		BattleTime: battleTime,
		Team:       []api.BattlePlayer{{Crowns: 1, Cards: cards}},
		Opponent:   []api.BattlePlayer{{Crowns: 0}},
	}
}
