package api

import "time"

// battleTimeLayout is the compact timestamp format used by the
// upstream battle log, e.g. "20240115T093042.000Z".
const battleTimeLayout = "20060102T150405.000Z"

// ParseBattleTime converts an upstream battle timestamp. Malformed
// values return the zero time rather than an error; per-battle
// validation happens in the predictor.
func ParseBattleTime(s string) time.Time {
	t, err := time.Parse(battleTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

type ClanSearchResponse struct {
	Items []ClanSummary `json:"items"`
}

type ClanSummary struct {
	Tag        string `json:"tag"`
	Name       string `json:"name"`
	ClanScore  int    `json:"clanScore"`
	Members    int    `json:"members"`
	Type       string `json:"type"`
	LocationID int    `json:"locationId"`
}

type ClanResponse struct {
	Tag         string `json:"tag"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ClanScore   int    `json:"clanScore"`
	Members     int    `json:"members"`
}

type ClanMembersResponse struct {
	Items []ClanMember `json:"items"`
}

type ClanMember struct {
	Tag               string `json:"tag"`
	Name              string `json:"name"`
	Role              string `json:"role"`
	ExpLevel          int    `json:"expLevel"`
	Trophies          int    `json:"trophies"`
	ClanRank          int    `json:"clanRank"`
	Donations         int    `json:"donations"`
	DonationsReceived int    `json:"donationsReceived"`
}

type PlayerResponse struct {
	Tag          string     `json:"tag"`
	Name         string     `json:"name"`
	ExpLevel     int        `json:"expLevel"`
	Trophies     int        `json:"trophies"`
	BestTrophies int        `json:"bestTrophies"`
	Wins         int        `json:"wins"`
	Losses       int        `json:"losses"`
	Arena        NamedItem  `json:"arena"`
	Clan         PlayerClan `json:"clan"`
}

type PlayerClan struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

type NamedItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// BattleLogResponse is a bare JSON array, not an object with items.
type BattleLogResponse []BattleLogEntry

type BattleLogEntry struct {
	Type       string         `json:"type"`
	BattleTime string         `json:"battleTime"`
	Arena      NamedItem      `json:"arena"`
	GameMode   NamedItem      `json:"gameMode"`
	Team       []BattlePlayer `json:"team"`
	Opponent   []BattlePlayer `json:"opponent"`
}

type BattlePlayer struct {
	Tag              string `json:"tag"`
	Name             string `json:"name"`
	StartingTrophies int    `json:"startingTrophies"`
	Crowns           int    `json:"crowns"`
	Cards            []Card `json:"cards"`
}

type Card struct {
	Name     string `json:"name"`
	ID       int    `json:"id"`
	Level    int    `json:"level"`
	MaxLevel int    `json:"maxLevel"`
}

type RiverRaceLogResponse struct {
	Items []RiverRace `json:"items"`
}

type RiverRace struct {
	SeasonID     int                 `json:"seasonId"`
	SectionIndex int                 `json:"sectionIndex"`
	CreatedDate  string              `json:"createdDate"`
	Standings    []RiverRaceStanding `json:"standings"`
}

type RiverRaceStanding struct {
	Rank int           `json:"rank"`
	Clan RiverRaceClan `json:"clan"`
}

type RiverRaceClan struct {
	Tag          string                 `json:"tag"`
	Name         string                 `json:"name"`
	Fame         int                    `json:"fame"`
	Participants []RiverRaceParticipant `json:"participants"`
}

type RiverRaceParticipant struct {
	Tag          string `json:"tag"`
	Name         string `json:"name"`
	Fame         int    `json:"fame"`
	DecksUsed    int    `json:"decksUsed"`
	BoatAttacks  int    `json:"boatAttacks"`
	RepairPoints int    `json:"repairPoints"`
}
