// Package server exposes the orchestrator API over HTTP. Handlers are
// thin: bind, call the orchestrator, map the error taxonomy onto
// status codes. No business logic lives here.
package server

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"decktracker/internal/apperr"
	"decktracker/internal/middleware"
	"decktracker/internal/ratelimit"
	"decktracker/internal/service"
)

const dateLayout = "2006-01-02"

type Server struct {
	orchestrator *service.Orchestrator
	db           *sql.DB
	redis        *redis.Client
	logger       zerolog.Logger
}

func New(orchestrator *service.Orchestrator, db *sql.DB, redisClient *redis.Client, logger zerolog.Logger) *Server {
	return &Server{orchestrator: orchestrator, db: db, redis: redisClient, logger: logger}
}

// Router builds the gin engine with middleware and all routes.
func (s *Server) Router(budget *ratelimit.CallerBudget) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(s.logger))

	r.GET("/health", s.health)

	api := r.Group("/api")
	api.Use(middleware.CallerBudget(budget, s.logger))
	{
		api.POST("/players/resolve", s.resolveAndPredict)
		api.POST("/players/resolve-in-clan", s.resolveInClan)
		api.GET("/players/:tag/decks", s.predictDecks)
		api.GET("/players/:tag/stats", s.playerStats)

		api.POST("/clans/:tag/track", s.trackClan)
		api.GET("/clans/:tag/tracking-status", s.trackingStatus)
		api.POST("/clans/:tag/snapshot", s.captureSnapshot)
		api.GET("/clans/:tag/delta", s.clanDelta)
		api.POST("/clans/capture-tracked", s.captureTracked)
	}

	return r
}

type resolveRequest struct {
	PlayerName string `json:"player_name" binding:"required"`
	ClanName   string `json:"clan_name" binding:"required"`
	Mode       string `json:"mode"`
}

func (s *Server) resolveAndPredict(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_name and clan_name are required"})
		return
	}
	if req.Mode == "" {
		req.Mode = "ranked"
	}

	prediction, err := s.orchestrator.ResolveAndPredict(c.Request.Context(), req.PlayerName, req.ClanName, req.Mode)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPredictionResponse(prediction))
}

type resolveInClanRequest struct {
	PlayerName string `json:"player_name" binding:"required"`
	ClanTag    string `json:"clan_tag" binding:"required"`
	Mode       string `json:"mode"`
}

func (s *Server) resolveInClan(c *gin.Context) {
	var req resolveInClanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_name and clan_tag are required"})
		return
	}
	if req.Mode == "" {
		req.Mode = "ranked"
	}

	prediction, err := s.orchestrator.ResolveInClanAndPredict(c.Request.Context(), req.PlayerName, req.ClanTag, req.Mode)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPredictionResponse(prediction))
}

func (s *Server) predictDecks(c *gin.Context) {
	mode := c.DefaultQuery("mode", "ranked")

	decks, err := s.orchestrator.PredictByTag(c.Request.Context(), c.Param("tag"), mode)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"player_tag": c.Param("tag"),
		"mode":       mode,
		"decks":      toDeckResponses(decks),
	})
}

func (s *Server) playerStats(c *gin.Context) {
	stats, err := s.orchestrator.PlayerStats(c.Request.Context(), c.Param("tag"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatsResponse(stats))
}

func (s *Server) trackClan(c *gin.Context) {
	clan, snapshotCreated, err := s.orchestrator.TrackClan(c.Request.Context(), c.Param("tag"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"clan_tag":         clan.ClanTag,
		"clan_name":        clan.ClanName,
		"tracking_started": clan.TrackingStarted.Format(time.RFC3339),
		"snapshot_created": snapshotCreated,
	})
}

func (s *Server) trackingStatus(c *gin.Context) {
	clan, err := s.orchestrator.TrackingStatus(c.Request.Context(), c.Param("tag"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	if clan == nil {
		c.JSON(http.StatusOK, gin.H{"is_tracked": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"is_tracked":     clan.Active,
		"clan_name":      clan.ClanName,
		"tracking_since": clan.TrackingStarted.Format(time.RFC3339),
	})
}

func (s *Server) captureSnapshot(c *gin.Context) {
	result, err := s.orchestrator.CaptureSnapshot(c.Request.Context(), c.Param("tag"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"clan_tag": result.ClanTag,
		"date":     result.Date,
		"members":  result.Members,
	})
}

func (s *Server) clanDelta(c *gin.Context) {
	from, err := time.Parse(dateLayout, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be a YYYY-MM-DD date"})
		return
	}
	to, err := time.Parse(dateLayout, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be a YYYY-MM-DD date"})
		return
	}

	deltas, err := s.orchestrator.ClanDelta(c.Request.Context(), c.Param("tag"), from, to)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"clan_tag": c.Param("tag"),
		"members":  toDeltaResponses(deltas),
	})
}

func (s *Server) captureTracked(c *gin.Context) {
	results, err := s.orchestrator.CaptureTracked(c.Request.Context())
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"captured": results})
}

func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "ok"
	if err := s.db.PingContext(c.Request.Context()); err != nil {
		dbStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}
	cacheStatus := "ok"
	if err := s.redis.Ping(c.Request.Context()).Err(); err != nil {
		cacheStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"database": dbStatus, "cache": cacheStatus})
}

// renderError maps the error taxonomy onto HTTP statuses without
// altering semantics. UpstreamMalformed is treated as an empty
// upstream answer, not a server fault.
func (s *Server) renderError(c *gin.Context, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	switch appErr.Kind {
	case apperr.KindInvalidInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": appErr.Error()})
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": appErr.Error(), "resource": appErr.Resource})
	case apperr.KindUpstreamMalformed:
		s.logger.Warn().Err(appErr).Str("path", c.Request.URL.Path).Msg("malformed upstream response")
		c.JSON(http.StatusNotFound, gin.H{"error": "no usable upstream data"})
	case apperr.KindRateLimited:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": appErr.Error()})
	case apperr.KindUpstreamUnavailable:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upstream provider unavailable"})
	default:
		s.logger.Error().Err(appErr).Str("path", c.Request.URL.Path).Msg("unhandled error kind")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
