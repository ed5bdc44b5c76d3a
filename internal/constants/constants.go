package constants

import "time"

const (
	RosterCacheTTL    = 5 * time.Minute
	BattleLogCacheTTL = 5 * time.Minute
	ClanSearchTTL     = 2 * time.Minute
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	RetryAttempts  = 3
	RetryBaseDelay = 250 * time.Millisecond
)

const (
	// Supercell grants 80 requests per minute per token on the developer tier.
	UpstreamRequestsPerMinute = 80
	UpstreamBurst             = 10

	CallerBudgetLimit  = 100
	CallerBudgetWindow = time.Hour
)

const (
	// Minimum similarity score to accept a roster match.
	ResolveMinConfidence = 50

	ClanSearchLimit = 10
	TopDeckCount    = 3
	DeckSize        = 8
)

const (
	// Last N river races considered when summing war participation.
	WarLogRaces       = 5
	WarAttacksPerRace = 4

	CaptureConcurrency = 4
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)
