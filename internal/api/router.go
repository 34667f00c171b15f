package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"MatchSync/internal/metrics"
	"MatchSync/internal/service"
)

const serviceVersion = "1.0.0"

// RouterDeps is everything the HTTP surface needs. Scheduler and Metrics may be nil.
type RouterDeps struct {
	Ingest      *service.IngestService
	Query       *service.QueryService
	Scheduler   *service.Scheduler
	Metrics     *metrics.Recorder
	MetricsPath string // defaults to /metrics
	APIKey      string
	Pprof       bool
	Logger      *logrus.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(deps.Logger, deps.Metrics))

	if deps.Pprof {
		pprof.Register(r)
	}

	scrapeHandler := NewScrapeHandler(deps.Ingest, deps.Logger)
	matchHandler := NewMatchHandler(deps.Query, deps.Logger)

	r.GET("/", index)
	r.GET("/healthz", health(deps.Scheduler))
	if h := deps.Metrics.Handler(); h != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(h))
	}

	// ingestion
	r.POST("/scraper/:sport", scrapeHandler.ScrapeSport)
	guarded := r.Group("/", RequireAPIKey(deps.APIKey))
	guarded.GET("/scrape", scrapeHandler.ScrapeURL)
	guarded.POST("/scrape", scrapeHandler.ScrapeURL)

	// queries
	r.GET("/api/runs", matchHandler.ListRuns)
	r.GET("/api/:sport", matchHandler.ListMatches)
	r.GET("/api/:sport/:id", matchHandler.GetMatch)
	r.GET("/matches", matchHandler.ListLegacyMatches)
	r.GET("/matches/:id", matchHandler.GetLegacyMatch)

	return r
}

func index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "MatchSync sports scraper API",
		"version": serviceVersion,
		"status":  "online",
		"endpoints": []string{
			"POST /scraper/:sport",
			"GET|POST /scrape?url=&sport_type=",
			"GET /api/:sport?participant=&competition=&limit=",
			"GET /api/:sport/:id",
			"GET /api/runs?sport=&limit=",
			"GET /matches?sport_type=&player=&tournament=&limit=",
			"GET /matches/:id?sport_type=",
			"GET /healthz",
			"GET /metrics",
		},
	})
}

// health reports ok unless a scheduled sport has failed three times in a row.
func health(s *service.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ok", "time": time.Now().UTC()}
		if s == nil {
			c.JSON(http.StatusOK, body)
			return
		}
		status := s.Status()
		body["scheduler"] = status
		for _, st := range status {
			if st.ConsecutiveFailures >= 3 {
				body["status"] = "degraded"
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
