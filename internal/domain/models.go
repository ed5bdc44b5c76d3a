package domain

import (
	"sort"
	"strings"
	"time"
)

// Battle types as reported by the upstream battle log.
const (
	BattleTypeLadder        = "ladder"
	BattleTypePathOfLegend  = "pathOfLegend"
	BattleTypeChallenge     = "challenge"
	BattleTypeTournament    = "tournament"
	BattleTypeFriendly      = "friendly"
	BattleTypeClanMate      = "clanMate"
	BattleTypeRiverRacePvP  = "riverRacePvP"
	BattleTypeRiverRaceDuel = "riverRaceDuel"
)

// Game modes accepted by the predictor.
const (
	ModeLadder = "ladder"
	ModeRanked = "ranked"
	ModeAll    = "all"
)

const (
	ResultWin     = "win"
	ResultLoss    = "loss"
	ResultDraw    = "draw"
	ResultUnknown = "unknown"
)

// ResolvedPlayer is the outcome of fuzzy-matching a free-text name
// against a clan roster. Confidence is 0-100; 100 means an exact
// case-insensitive match.
type ResolvedPlayer struct {
	Tag        string
	Name       string
	Confidence int
}

// Battle is one entry of a player's battle log, normalized from the
// upstream shape. Deck holds card identifiers in upstream order.
type Battle struct {
	Type             string
	Time             time.Time
	Result           string
	Crowns           int
	OpponentCrowns   int
	Deck             []string
	Arena            string
	OpponentName     string
	PlayerTrophies   int
	OpponentTrophies int
}

// DeckSignature is the canonical, order-independent key for an 8-card
// deck: the sorted card identifiers joined with "|". Two battles played
// with the same cards in any order share a signature.
type DeckSignature string

// NewDeckSignature builds the signature without mutating cards.
func NewDeckSignature(cards []string) DeckSignature {
	sorted := make([]string, len(cards))
	copy(sorted, cards)
	sort.Strings(sorted)
	return DeckSignature(strings.Join(sorted, "|"))
}

// RankedDeck is one entry of the predictor output. Cards holds the
// first-observed order for display, not the canonical sorted order.
type RankedDeck struct {
	Signature       DeckSignature
	Cards           []string
	UsageConfidence float64
	Battles         int
	LastPlayed      time.Time
}

// ClanMemberSnapshot is one persisted row per (clan, member, capture
// date). Rows are write-once; deltas are derived, never stored.
type ClanMemberSnapshot struct {
	ID                string
	ClanTag           string
	PlayerTag         string
	PlayerName        string
	Donations         int
	DonationsReceived int
	WarAttacks        int
	TotalWarAttacks   int
	Medals            int
	Battles           int
	Wins              int
	Losses            int
	RankedBattles     int
	RankedWins        int
	RankedLosses      int
	LadderBattles     int
	LadderWins        int
	LadderLosses      int
	SnapshotDate      string // YYYY-MM-DD
	CapturedAt        time.Time
}

// MemberDelta is snapshot(to) - snapshot(from) for one member.
// Partial marks members present in only one of the two snapshots.
// CycleReset marks counters that went backwards (weekly reset); the
// raw to-side row is reported in CurrentCycle instead of a negative
// delta.
type MemberDelta struct {
	PlayerTag         string
	PlayerName        string
	Donations         int
	DonationsReceived int
	WarAttacks        int
	Medals            int
	Battles           int
	Wins              int
	Losses            int
	Partial           bool
	CycleReset        bool
	CurrentCycle      *ClanMemberSnapshot
}

// TrackedClan is a clan whose roster is being snapshotted daily.
type TrackedClan struct {
	ClanTag         string
	ClanName        string
	TrackingStarted time.Time
	Active          bool
}

// PlayerStats is the aggregate profile view of one player.
type PlayerStats struct {
	Tag           string
	Name          string
	Trophies      int
	BestTrophies  int
	Level         int
	Arena         string
	ClanName      string
	ClanTag       string
	TotalBattles  int
	Wins          int
	Losses        int
	WinRate       float64
	RecentBattles []Battle
	TopDecks      []RankedDeck
}
