// Package server exposes evaluation and stored sheets over HTTP.
package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"github.com/vogtb/excel-clone/packages/sheetstore"
	"github.com/vogtb/excel-clone/packages/spreadsheet"
)

// SheetStore is the persistence the sheet routes need
type SheetStore interface {
	Create(name string, rows, cols int, cells spreadsheet.Snapshot) (*sheetstore.Sheet, error)
	Get(id string) (*sheetstore.Sheet, error)
	List() ([]*sheetstore.Sheet, error)
	SetCell(id, cellID, raw string) (*sheetstore.Sheet, error)
	Delete(id string) error
}

type Server struct {
	store       SheetStore
	evaluator   *spreadsheet.Evaluator
	logger      *slog.Logger
	defaultRows int
	defaultCols int

	// concurrent reads of one sheet's values share a single pass
	passes singleflight.Group

	router *gin.Engine
}

type Option func(*Server)

func WithEvaluator(e *spreadsheet.Evaluator) Option {
	return func(s *Server) {
		s.evaluator = e
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithDefaultGrid sets the dimensions of sheets created without any
func WithDefaultGrid(rows, cols int) Option {
	return func(s *Server) {
		s.defaultRows = rows
		s.defaultCols = cols
	}
}

func New(store SheetStore, opts ...Option) *Server {
	s := &Server{
		store:       store,
		defaultRows: 100,
		defaultCols: 26,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.evaluator == nil {
		s.evaluator = spreadsheet.NewEvaluator()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	v1.POST("/evaluate", s.evaluateAction)

	sheets := v1.Group("/sheets")
	sheets.POST("", s.createSheetAction)
	sheets.GET("", s.listSheetsAction)
	sheets.GET("/:sheet_id", s.getSheetAction)
	sheets.DELETE("/:sheet_id", s.deleteSheetAction)
	sheets.PUT("/:sheet_id/cells/:cell_id", s.setCellAction)
	sheets.GET("/:sheet_id/values", s.valuesAction)
	sheets.GET("/:sheet_id/graph/:cell_id", s.graphAction)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// statusFor maps store and application errors to HTTP status codes
func statusFor(err error) int {
	var appErr *spreadsheet.AppError
	switch {
	case errors.Is(err, sheetstore.ErrSheetNotFound):
		return http.StatusNotFound
	case errors.As(err, &appErr):
		switch appErr.Code {
		case spreadsheet.InvalidArgument:
			return http.StatusBadRequest
		case spreadsheet.NotFound:
			return http.StatusNotFound
		case spreadsheet.AlreadyExists:
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) abort(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
