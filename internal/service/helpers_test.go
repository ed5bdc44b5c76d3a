package service

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"decktracker/internal/api"
	"decktracker/internal/cache"
	"decktracker/internal/config"
	"decktracker/internal/database"
	"decktracker/internal/domain"
	"decktracker/internal/ratelimit"
)

// newTestSupercell wires a real client against an httptest upstream,
// with a fresh miniredis cache and a limiter that never denies.
func newTestSupercell(t *testing.T, handler http.Handler) *api.SupercellClient {
	t.Helper()

	ts := httptest.NewServer(handler)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
		ts.Close()
	})

	cfg := &config.Config{
		SupercellToken:   "test-token",
		SupercellBaseURL: ts.URL,
	}
	limiter := ratelimit.NewUpstreamLimits(rate.Limit(1000), 1000)
	return api.NewSupercellClient(cfg, cache.NewRedis(rdb, zerolog.Nop()), limiter, zerolog.Nop())
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := database.RunMigrations(db, zerolog.Nop()); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Eight-card test decks differing in one card each.
var (
	deckA = []string{"Knight", "Archers", "Fireball", "Zap", "Giant", "Musketeer", "Minions", "Cannon"}
	deckB = []string{"Knight", "Archers", "Fireball", "Zap", "Giant", "Musketeer", "Minions", "Tesla"}
	deckC = []string{"Knight", "Archers", "Fireball", "Zap", "Giant", "Musketeer", "Minions", "Hog Rider"}
	deckD = []string{"Knight", "Archers", "Fireball", "Zap", "Giant", "Musketeer", "Minions", "Valkyrie"}
)

func battleAt(battleType string, deck []string, at time.Time) domain.Battle {
	return domain.Battle{
		Type:   battleType,
		Time:   at,
		Result: domain.ResultWin,
		Deck:   deck,
	}
}

func repeatBattles(battleType string, deck []string, n int, at time.Time) []domain.Battle {
	out := make([]domain.Battle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, battleAt(battleType, deck, at))
	}
	return out
}
