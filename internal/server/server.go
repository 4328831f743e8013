package server

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"xferbench/internal/chart"
	"xferbench/internal/config"
	"xferbench/internal/model"
	"xferbench/internal/results"
	"xferbench/internal/store"
)

// Server exposes the latest results and run history read-only over HTTP.
type Server struct {
	router  *gin.Engine
	listen  string
	bench   config.BenchConfig
	history *store.FileRecorder
}

// New constructs a results server.
func New(cfg config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	listen := config.DefaultServeListen
	if cfg.Serve != nil && cfg.Serve.Listen != "" {
		listen = cfg.Serve.Listen
	}

	s := &Server{
		router:  router,
		listen:  listen,
		bench:   cfg.Bench,
		history: store.NewFileRecorder(resolve(cfg.Bench.WorkDir, cfg.Bench.HistoryPath)),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	{
		api.GET("/results", s.getResults)
		api.GET("/results.csv", s.exportCSV)
		api.GET("/summary", s.getSummary)
		api.GET("/runs", s.getRuns)
	}
	s.router.GET("/chart.png", s.getChart)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the HTTP server.
func (s *Server) ListenAndServe() error {
	server := &http.Server{
		Addr:              s.listen,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("results server listening on %s", s.listen)
	return server.ListenAndServe()
}

func (s *Server) getResults(c *gin.Context) {
	items, ok := s.loadResults(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) exportCSV(c *gin.Context) {
	items, ok := s.loadResults(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=transfer_results.csv")
	c.Status(http.StatusOK)
	if err := results.WriteCSV(c.Writer, items); err != nil {
		log.Printf("write csv: %v", err)
	}
}

func (s *Server) getSummary(c *gin.Context) {
	items, ok := s.loadResults(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, results.Summarize(items))
}

func (s *Server) getRuns(c *gin.Context) {
	runs, err := s.history.Runs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 && limit < len(runs) {
		runs = runs[len(runs)-limit:]
	}
	if runs == nil {
		runs = []model.Run{}
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) getChart(c *gin.Context) {
	items, ok := s.loadResults(c)
	if !ok {
		return
	}
	dpi, err := strconv.Atoi(c.DefaultQuery("dpi", "100"))
	if err != nil || dpi <= 0 || dpi > s.maxDPI() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dpi must be between 1 and " + strconv.Itoa(s.maxDPI())})
		return
	}
	var buf bytes.Buffer
	if err := chart.NewRenderer(dpi).WriteAnalysis(&buf, items); err != nil {
		log.Printf("render chart: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) loadResults(c *gin.Context) ([]model.TransferResult, bool) {
	items, err := results.LoadJSON(resolve(s.bench.WorkDir, s.bench.ResultsPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no results yet"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if len(items) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no results yet"})
		return nil, false
	}
	return items, true
}

func (s *Server) maxDPI() int {
	if s.bench.ChartDPI > 0 {
		return s.bench.ChartDPI
	}
	return config.DefaultChartDPI
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}
