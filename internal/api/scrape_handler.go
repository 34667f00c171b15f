package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"MatchSync/internal/model"
	"MatchSync/internal/service"
)

// sportAliases maps the route names of the legacy scraper API to sport identifiers.
var sportAliases = map[string]model.Sport{
	"futbol":     model.SportFootball,
	"tenis":      model.SportTennis,
	"baloncesto": model.SportBasketball,
}

func parseSport(s string) model.Sport {
	sport := model.ParseSport(s)
	if alias, ok := sportAliases[string(sport)]; ok {
		return alias
	}
	return sport
}

type ScrapeHandler struct {
	ingest *service.IngestService
	logger *logrus.Logger
}

func NewScrapeHandler(ingest *service.IngestService, logger *logrus.Logger) *ScrapeHandler {
	return &ScrapeHandler{ingest: ingest, logger: logger}
}

// ScrapeSport ingests a sport's configured source page.
// @Summary Scrape one sport
// @Param sport path string true "football|tennis|basketball|generic (futbol/tenis/baloncesto accepted)"
// @Success 200 {object} model.IngestResult
// @Failure 400,500,502 {object} model.IngestResult
// @Router /scraper/{sport} [post]
func (h *ScrapeHandler) ScrapeSport(c *gin.Context) {
	res := h.ingest.Ingest(c.Request.Context(), parseSport(c.Param("sport")))
	c.JSON(ingestStatus(res), res)
}

// ScrapeURL ingests an arbitrary page with a sport's pipeline.
// GET|POST /scrape?url=https://...&sport_type=tennis
func (h *ScrapeHandler) ScrapeURL(c *gin.Context) {
	// 1. parameters
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required, use ?url=<page>"})
		return
	}
	sport := parseSport(c.DefaultQuery("sport_type", string(model.SportTennis)))

	// 2. ingest; a page with no matches is a 404
	res := h.ingest.IngestURL(c.Request.Context(), sport, url)
	if res.Succeeded() && !res.Found {
		c.JSON(http.StatusNotFound, res)
		return
	}
	c.JSON(ingestStatus(res), res)
}

// ingestStatus maps a run result to its HTTP status.
func ingestStatus(res model.IngestResult) int {
	if res.Succeeded() {
		return http.StatusOK
	}
	switch res.Reason {
	case model.ReasonUnsupportedSport:
		return http.StatusBadRequest
	case model.ReasonFetch:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
