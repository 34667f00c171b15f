package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"MatchSync/internal/interfaces"
	"MatchSync/internal/model"
	"MatchSync/internal/service"
)

// MatchHandler serves stored matches and the ingestion history.
type MatchHandler struct {
	query  *service.QueryService
	logger *logrus.Logger
}

func NewMatchHandler(query *service.QueryService, logger *logrus.Logger) *MatchHandler {
	return &MatchHandler{query: query, logger: logger}
}

// firstQuery returns the first non-empty query parameter among names.
func firstQuery(c *gin.Context, names ...string) string {
	for _, n := range names {
		if v := c.Query(n); v != "" {
			return v
		}
	}
	return ""
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": model.StatusError, "message": "limit must be a non-negative integer"})
		return 0, false
	}
	return n, true
}

// ListMatches lists one sport's matches, newest first.
// GET /api/:sport?participant=&competition=&limit=
// The legacy names equipo/jugador and competencia/torneo/liga are accepted as well.
func (h *MatchHandler) ListMatches(c *gin.Context) {
	h.list(c, parseSport(c.Param("sport")))
}

// ListLegacyMatches is the /matches listing: sport_type (default tennis), tournament, player, limit.
func (h *MatchHandler) ListLegacyMatches(c *gin.Context) {
	h.list(c, parseSport(c.DefaultQuery("sport_type", string(model.SportTennis))))
}

func (h *MatchHandler) list(c *gin.Context, sport model.Sport) {
	// 1. parameters
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	filter := model.MatchFilter{
		Participant: firstQuery(c, "participant", "equipo", "jugador", "player"),
		Competition: firstQuery(c, "competition", "competencia", "torneo", "liga", "tournament"),
		Limit:       limit,
	}

	// 2. query
	records, err := h.query.Query(c.Request.Context(), sport, filter)
	if err != nil {
		h.fail(c, sport, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": model.StatusSuccess,
		"data":   records,
		"count":  len(records),
	})
}

// GetMatch returns one match.
// GET /api/:sport/:id
func (h *MatchHandler) GetMatch(c *gin.Context) {
	h.get(c, parseSport(c.Param("sport")))
}

// GetLegacyMatch is /matches/:id?sport_type=.
func (h *MatchHandler) GetLegacyMatch(c *gin.Context) {
	h.get(c, parseSport(c.DefaultQuery("sport_type", string(model.SportTennis))))
}

func (h *MatchHandler) get(c *gin.Context, sport model.Sport) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": model.StatusError, "message": "id must be a positive integer"})
		return
	}
	record, err := h.query.Get(c.Request.Context(), sport, id)
	if err != nil {
		h.fail(c, sport, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": model.StatusSuccess, "data": record})
}

// ListRuns returns recent ingestion runs.
// GET /api/runs?sport=football&limit=20
func (h *MatchHandler) ListRuns(c *gin.Context) {
	// 1. parameters
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	filter := model.RunFilter{Limit: limit}
	if s := c.Query("sport"); s != "" {
		filter.Sport = string(parseSport(s))
	}

	runs, err := h.query.Runs(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, model.Sport(filter.Sport), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": model.StatusSuccess,
		"data":   runs,
		"count":  len(runs),
	})
}

func (h *MatchHandler) fail(c *gin.Context, sport model.Sport, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, interfaces.ErrUnsupportedSport):
		status = http.StatusBadRequest
	case errors.Is(err, interfaces.ErrNotFound):
		status = http.StatusNotFound
	default:
		h.logger.WithError(err).WithField("sport", sport).Error("match query failed")
	}
	c.JSON(status, gin.H{"status": model.StatusError, "message": err.Error()})
}
