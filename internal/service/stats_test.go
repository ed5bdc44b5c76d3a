package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"decktracker/internal/api"
	"decktracker/internal/apperr"
	"decktracker/internal/domain"
)

func TestStatsAggregatesProfileAndRecord(t *testing.T) {
	player := api.PlayerResponse{
		Tag:          "#ABC",
		Name:         "Ash",
		ExpLevel:     14,
		Trophies:     6200,
		BestTrophies: 6500,
		Arena:        api.NamedItem{Name: "Legendary Arena"},
		Clan:         api.PlayerClan{Tag: "#CLAN", Name: "Night Watch"},
	}
	log := api.BattleLogResponse{
		battleLogEntry(domain.BattleTypePathOfLegend, "20240115T090000.000Z", deckA),
		battleLogEntry(domain.BattleTypePathOfLegend, "20240115T091500.000Z", deckA),
		battleLogEntry(domain.BattleTypeFriendly, "20240115T093000.000Z", deckB), // excluded from record
	}
	// One competitive loss.
	loss := battleLogEntry(domain.BattleTypeLadder, "20240115T094500.000Z", deckB)
	loss.Team[0].Crowns = 0
	loss.Opponent[0].Crowns = 2
	log = append(log, loss)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/battlelog") {
			json.NewEncoder(w).Encode(log)
			return
		}
		json.NewEncoder(w).Encode(player)
	})
	s := NewPlayerStatsService(newTestSupercell(t, handler), zerolog.Nop())

	stats, err := s.Stats(context.Background(), "#ABC")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.Name != "Ash" || stats.ClanTag != "#CLAN" || stats.Arena != "Legendary Arena" {
		t.Errorf("profile = %+v", stats)
	}
	if stats.Wins != 2 || stats.Losses != 1 || stats.TotalBattles != 3 {
		t.Errorf("record = %d-%d over %d, want 2-1 over 3", stats.Wins, stats.Losses, stats.TotalBattles)
	}
	if stats.WinRate < 66.6 || stats.WinRate > 66.7 {
		t.Errorf("win rate = %v, want ~66.67", stats.WinRate)
	}
	if len(stats.RecentBattles) != 4 {
		t.Errorf("recent battles = %d, want all 4", len(stats.RecentBattles))
	}
	if len(stats.TopDecks) != 2 {
		t.Fatalf("top decks = %d, want 2 (friendly deck excluded)", len(stats.TopDecks))
	}
	if stats.TopDecks[0].Signature != domain.NewDeckSignature(deckA) {
		t.Errorf("top deck = %q, want the twice-played deck", stats.TopDecks[0].Signature)
	}
}

func TestStatsValidatesTag(t *testing.T) {
	s := NewPlayerStatsService(newTestSupercell(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("upstream called despite invalid input")
	})), zerolog.Nop())

	if _, err := s.Stats(context.Background(), "  "); !apperr.Is(err, apperr.KindInvalidInput) {
		t.Errorf("err = %v, want InvalidInput", err)
	}
}
