// Package api serves receipt interpretation and printing over HTTP and WebSocket
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/thereceipt/receipt-interpreter/internal/interpreter"
	"github.com/thereceipt/receipt-interpreter/internal/placeholder"
	"github.com/thereceipt/receipt-interpreter/internal/printer"
	"github.com/thereceipt/receipt-interpreter/internal/registry"
	"github.com/thereceipt/receipt-interpreter/pkg/receiptdsl"
)

// Server is the API server
type Server struct {
	router      *gin.Engine
	manager     *printer.Manager
	queue       *printer.PrintQueue
	resolver    *placeholder.Resolver
	interpreter *interpreter.Interpreter
	paperWidth  string
	logger      *slog.Logger
	upgrader    websocket.Upgrader
	hub         *hub
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the server's logger, also used by the interpreter
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithPaperWidth sets the paper width receipts are encoded for
func WithPaperWidth(w string) Option {
	return func(s *Server) {
		s.paperWidth = w
	}
}

// WithResolver sets the placeholder resolver
func WithResolver(r *placeholder.Resolver) Option {
	return func(s *Server) {
		s.resolver = r
	}
}

// NewServer creates the API server
func NewServer(manager *printer.Manager, queue *printer.PrintQueue, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:     gin.New(),
		manager:    manager,
		queue:      queue,
		paperWidth: "80mm",
		logger:     slog.New(slog.DiscardHandler),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		hub: newHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		s.resolver = placeholder.NewResolver()
	}
	s.interpreter = interpreter.New(interpreter.WithResolver(s.resolver), interpreter.WithLogger(s.logger))

	s.router.Use(gin.Recovery(), requestLogger(s.logger), corsMiddleware())
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler, for tests and custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	s.router.POST("/interpret", s.handleInterpret)
	s.router.POST("/validate", s.handleValidate)
	s.router.POST("/print", s.handlePrint)

	s.router.GET("/printers", s.handleGetPrinters)
	s.router.POST("/printer/network", s.handleAddNetworkPrinter)
	s.router.POST("/printer/:id/name", s.handleSetPrinterName)
	s.router.DELETE("/printer/:id", s.handleRemovePrinter)

	s.router.GET("/jobs", s.handleGetJobs)
	s.router.POST("/jobs/clear", s.handleClearJobs)
	s.router.GET("/job/:id", s.handleGetJob)

	s.router.GET("/ws", s.handleWebSocket)

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// handleInterpret runs a document against the recording printer and
// returns the resulting calls
func (s *Server) handleInterpret(c *gin.Context) {
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	text, err := req.text()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec := printer.NewRecorder()
	summary := s.interpreter.Interpret(text, rec, req.Order)

	c.JSON(http.StatusOK, gin.H{
		"calls":   rec.Calls(),
		"lines":   rec.Lines(),
		"summary": newSummaryResponse(summary),
	})
}

// handleValidate lints a document after placeholder substitution
func (s *Server) handleValidate(c *gin.Context) {
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	text, err := req.text()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := receiptdsl.ParseDocument([]byte(s.resolver.Preprocess(text, req.Order)))
	if err == nil {
		err = receiptdsl.Validate(doc)
	}
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true, "elements": len(doc.Elements)})
}

// handlePrint encodes a document and queues it for a printer
func (s *Server) handlePrint(c *gin.Context) {
	var req printRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, summary, err := s.submit(req)
	switch {
	case errors.Is(err, errPrinterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job_id":  job.ID,
		"summary": newSummaryResponse(summary),
	})
}

func (s *Server) handleGetPrinters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"printers": s.manager.Devices()})
}

func (s *Server) handleSetPrinterName(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	if err := s.manager.SetName(c.Param("id"), req.Name); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "printer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleRemovePrinter(c *gin.Context) {
	if err := s.manager.RemovePrinter(c.Param("id")); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "printer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleAddNetworkPrinter(c *gin.Context) {
	var req struct {
		Host        string `json:"host" binding:"required"`
		Port        int    `json:"port"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "host is required"})
		return
	}

	id := s.manager.AddNetworkPrinter(req.Host, req.Port, req.Description)
	device, _ := s.manager.Device(id)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"printer_id": id,
		"printer":    device,
	})
}

func (s *Server) handleGetJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": s.queue.Jobs()})
}

func (s *Server) handleClearJobs(c *gin.Context) {
	s.queue.ClearCompleted()
	c.JSON(http.StatusOK, gin.H{"success": true, "jobs": s.queue.Jobs()})
}

func (s *Server) handleGetJob(c *gin.Context) {
	job, ok := s.queue.Job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("request", "method", c.Request.Method, "path", c.FullPath(), "status", c.Writer.Status())
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
