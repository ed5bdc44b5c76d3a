package service

import (
	"decktracker/internal/api"
	"decktracker/internal/constants"
	"decktracker/internal/domain"
)

// pvpBattleTypes are the modes that count toward win/loss records.
// 2v2 and casual modes are excluded.
var pvpBattleTypes = map[string]bool{
	domain.BattleTypePathOfLegend: true,
	domain.BattleTypeLadder:       true,
	domain.BattleTypeChallenge:    true,
	domain.BattleTypeTournament:   true,
}

// normalizeBattles converts raw battle log entries into domain
// battles. Entries without team data are dropped; upstream responses
// are untrusted and missing fields must not crash the pipeline.
func normalizeBattles(entries api.BattleLogResponse) []domain.Battle {
	battles := make([]domain.Battle, 0, len(entries))
	for _, e := range entries {
		if len(e.Team) == 0 {
			continue
		}
		team := e.Team[0]

		var opponent api.BattlePlayer
		if len(e.Opponent) > 0 {
			opponent = e.Opponent[0]
		}

		deck := make([]string, 0, len(team.Cards))
		for _, c := range team.Cards {
			deck = append(deck, c.Name)
		}

		battles = append(battles, domain.Battle{
			Type:             e.Type,
			Time:             api.ParseBattleTime(e.BattleTime),
			Result:           battleResult(team.Crowns, opponent.Crowns),
			Crowns:           team.Crowns,
			OpponentCrowns:   opponent.Crowns,
			Deck:             deck,
			Arena:            e.Arena.Name,
			OpponentName:     opponent.Name,
			PlayerTrophies:   team.StartingTrophies,
			OpponentTrophies: opponent.StartingTrophies,
		})
	}
	return battles
}

func battleResult(crowns, opponentCrowns int) string {
	switch {
	case crowns > opponentCrowns:
		return domain.ResultWin
	case crowns < opponentCrowns:
		return domain.ResultLoss
	default:
		return domain.ResultDraw
	}
}

// countWinsLosses tallies PvP results. Draws are not counted.
func countWinsLosses(battles []domain.Battle) (wins, losses int) {
	for _, b := range battles {
		if !pvpBattleTypes[b.Type] {
			continue
		}
		switch b.Result {
		case domain.ResultWin:
			wins++
		case domain.ResultLoss:
			losses++
		}
	}
	return wins, losses
}

// countModeRecord tallies battles/wins/losses for one battle type.
func countModeRecord(battles []domain.Battle, battleType string) (total, wins, losses int) {
	for _, b := range battles {
		if b.Type != battleType {
			continue
		}
		total++
		switch b.Result {
		case domain.ResultWin:
			wins++
		case domain.ResultLoss:
			losses++
		}
	}
	return total, wins, losses
}

// validDeck reports whether a deck is exactly DeckSize distinct cards.
func validDeck(deck []string) bool {
	if len(deck) != constants.DeckSize {
		return false
	}
	seen := make(map[string]bool, len(deck))
	for _, card := range deck {
		if seen[card] {
			return false
		}
		seen[card] = true
	}
	return true
}
