package server

import (
	"time"

	"decktracker/internal/domain"
	"decktracker/internal/service"
)

type deckResponse struct {
	Cards           []string `json:"cards"`
	UsageConfidence float64  `json:"usage_confidence"`
	Battles         int      `json:"battles"`
	LastPlayed      string   `json:"last_played,omitempty"`
}

type predictionResponse struct {
	PlayerTag  string         `json:"player_tag"`
	Name       string         `json:"name"`
	Confidence int            `json:"confidence"`
	Decks      []deckResponse `json:"decks"`
}

func toPredictionResponse(p *service.Prediction) predictionResponse {
	return predictionResponse{
		PlayerTag:  p.Player.Tag,
		Name:       p.Player.Name,
		Confidence: p.Player.Confidence,
		Decks:      toDeckResponses(p.Decks),
	}
}

func toDeckResponses(decks []domain.RankedDeck) []deckResponse {
	out := make([]deckResponse, 0, len(decks))
	for _, d := range decks {
		resp := deckResponse{
			Cards:           d.Cards,
			UsageConfidence: d.UsageConfidence,
			Battles:         d.Battles,
		}
		if !d.LastPlayed.IsZero() {
			resp.LastPlayed = d.LastPlayed.Format(time.RFC3339)
		}
		out = append(out, resp)
	}
	return out
}

type battleResponse struct {
	Type             string   `json:"type"`
	Time             string   `json:"time,omitempty"`
	Result           string   `json:"result"`
	Crowns           int      `json:"crowns"`
	OpponentCrowns   int      `json:"opponent_crowns"`
	Deck             []string `json:"deck"`
	Arena            string   `json:"arena,omitempty"`
	OpponentName     string   `json:"opponent_name,omitempty"`
	PlayerTrophies   int      `json:"player_trophies,omitempty"`
	OpponentTrophies int      `json:"opponent_trophies,omitempty"`
}

type statsResponse struct {
	PlayerTag     string           `json:"player_tag"`
	Name          string           `json:"name"`
	Trophies      int              `json:"trophies"`
	BestTrophies  int              `json:"best_trophies"`
	Level         int              `json:"level"`
	Arena         string           `json:"arena"`
	ClanName      string           `json:"clan,omitempty"`
	ClanTag       string           `json:"clan_tag,omitempty"`
	TotalBattles  int              `json:"total_battles"`
	Wins          int              `json:"wins"`
	Losses        int              `json:"losses"`
	WinRate       float64          `json:"win_rate"`
	RecentBattles []battleResponse `json:"recent_battles"`
	TopDecks      []deckResponse   `json:"top_decks"`
}

func toStatsResponse(stats *domain.PlayerStats) statsResponse {
	battles := make([]battleResponse, 0, len(stats.RecentBattles))
	for _, b := range stats.RecentBattles {
		br := battleResponse{
			Type:             b.Type,
			Result:           b.Result,
			Crowns:           b.Crowns,
			OpponentCrowns:   b.OpponentCrowns,
			Deck:             b.Deck,
			Arena:            b.Arena,
			OpponentName:     b.OpponentName,
			PlayerTrophies:   b.PlayerTrophies,
			OpponentTrophies: b.OpponentTrophies,
		}
		if !b.Time.IsZero() {
			br.Time = b.Time.Format(time.RFC3339)
		}
		battles = append(battles, br)
	}

	return statsResponse{
		PlayerTag:     stats.Tag,
		Name:          stats.Name,
		Trophies:      stats.Trophies,
		BestTrophies:  stats.BestTrophies,
		Level:         stats.Level,
		Arena:         stats.Arena,
		ClanName:      stats.ClanName,
		ClanTag:       stats.ClanTag,
		TotalBattles:  stats.TotalBattles,
		Wins:          stats.Wins,
		Losses:        stats.Losses,
		WinRate:       stats.WinRate,
		RecentBattles: battles,
		TopDecks:      toDeckResponses(stats.TopDecks),
	}
}

type deltaResponse struct {
	PlayerTag         string        `json:"player_tag"`
	PlayerName        string        `json:"player_name"`
	Donations         int           `json:"donations"`
	DonationsReceived int           `json:"donations_received"`
	WarAttacks        int           `json:"war_attacks"`
	Medals            int           `json:"medals"`
	Battles           int           `json:"battles"`
	Wins              int           `json:"wins"`
	Losses            int           `json:"losses"`
	Partial           bool          `json:"partial"`
	CycleReset        bool          `json:"cycle_reset"`
	CurrentCycle      *currentCycle `json:"current_cycle,omitempty"`
}

type currentCycle struct {
	Donations         int `json:"donations"`
	DonationsReceived int `json:"donations_received"`
	WarAttacks        int `json:"war_attacks"`
	Medals            int `json:"medals"`
	Battles           int `json:"battles"`
	Wins              int `json:"wins"`
	Losses            int `json:"losses"`
}

func toDeltaResponses(deltas []domain.MemberDelta) []deltaResponse {
	out := make([]deltaResponse, 0, len(deltas))
	for _, d := range deltas {
		resp := deltaResponse{
			PlayerTag:         d.PlayerTag,
			PlayerName:        d.PlayerName,
			Donations:         d.Donations,
			DonationsReceived: d.DonationsReceived,
			WarAttacks:        d.WarAttacks,
			Medals:            d.Medals,
			Battles:           d.Battles,
			Wins:              d.Wins,
			Losses:            d.Losses,
			Partial:           d.Partial,
			CycleReset:        d.CycleReset,
		}
		if d.CurrentCycle != nil {
			resp.CurrentCycle = &currentCycle{
				Donations:         d.CurrentCycle.Donations,
				DonationsReceived: d.CurrentCycle.DonationsReceived,
				WarAttacks:        d.CurrentCycle.WarAttacks,
				Medals:            d.CurrentCycle.Medals,
				Battles:           d.CurrentCycle.Battles,
				Wins:              d.CurrentCycle.Wins,
				Losses:            d.CurrentCycle.Losses,
			}
		}
		out = append(out, resp)
	}
	return out
}
