// Package http provides the HTTP adapter over the application layer.
// It is a thin translation layer: requests in, service calls, JSON out.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amalthea-hq/expensehub/internal/application/approval"
	"github.com/amalthea-hq/expensehub/internal/application/service"
)

// Logger is the minimal logging dependency the HTTP layer needs
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server wired to the given services
func NewServer(
	config ServerConfig,
	users service.UserService,
	expenses service.ExpenseService,
	policies service.PolicyService,
	receipts service.ReceiptService,
	reports service.ReportService,
	currency service.CurrencyService,
	workflow *approval.Controller,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config: config,
		router: gin.New(),
		handlers: NewHandlers(
			users, expenses, policies, receipts, reports, currency, workflow, logger,
		),
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Infow("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)

	api := s.router.Group("/api/v1")
	{
		api.POST("/auth/signup", s.handlers.Signup)
		api.POST("/auth/login", s.handlers.Login)

		api.POST("/users", s.handlers.CreateUser)
		api.PATCH("/users/:id/manager", s.handlers.UpdateManager)
		api.GET("/companies/:id/users", s.handlers.ListUsers)

		api.POST("/expenses", s.handlers.CreateExpense)
		api.GET("/expenses/:id", s.handlers.GetExpense)
		api.GET("/employees/:id/expenses", s.handlers.ListEmployeeExpenses)
		api.GET("/companies/:id/expenses", s.handlers.ListCompanyExpenses)
		api.GET("/companies/:id/expenses/report", s.handlers.CompanyExpenseReport)

		api.POST("/expenses/:id/submit", s.handlers.SubmitExpense)
		api.POST("/expenses/:id/actions", s.handlers.TakeAction)
		api.GET("/expenses/:id/actions", s.handlers.ListActions)
		api.GET("/approvers/:id/pending", s.handlers.PendingApprovals)

		api.PUT("/policies", s.handlers.UpsertPolicy)
		api.GET("/policies/:id", s.handlers.GetPolicy)
		api.GET("/companies/:id/policies", s.handlers.ListPolicies)

		api.POST("/receipts/parse", s.handlers.ParseReceipt)

		api.GET("/countries", s.handlers.ListCountries)
		api.GET("/rates/:base", s.handlers.ListRates)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Infow("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Infow("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Errorw("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Errorw("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Infow("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
