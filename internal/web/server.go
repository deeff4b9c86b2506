package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskit/internal/clock"
	"taskit/internal/repository"
	"taskit/internal/service"
)

// Services bundles what the HTTP handlers call into.
type Services struct {
	Users    *repository.UserRepository
	Tasks    *service.TaskService
	Due      *service.DueService
	LongTerm *service.LongTermService
	Events   *service.EventService
	Stats    *service.StatsService
}

// Server is the JSON API of the planner.
type Server struct {
	svc    Services
	clock  *clock.Clock
	router *gin.Engine
}

// NewServer creates the API router.
func NewServer(svc Services, clk *clock.Clock) *Server {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	s := &Server{
		svc:    svc,
		clock:  clk,
		router: router,
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": clk.Now().Format(time.RFC3339)})
	})

	api := router.Group("/api", s.requireUser)
	{
		api.GET("/tasks", s.handleListToday)
		api.POST("/tasks", s.handleCreateTask)
		api.GET("/tasks/due", s.handleDue)
		api.GET("/tasks/:id", s.handleGetTask)
		api.PATCH("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.POST("/tasks/:id/daily", s.handleSetDaily)
		api.DELETE("/tasks/:id/daily", s.handleUnsetDaily)
		api.PATCH("/tasks/:id/long-term", s.handleCompleteLongTerm)
		api.DELETE("/tasks/:id/long-term", s.handleUncompleteLongTerm)
		api.POST("/tasks/:id/anchor", s.handleToggleAnchor)

		api.GET("/events", s.handleListEvents)
		api.POST("/events", s.handleCreateEvent)
		api.GET("/events/:id", s.handleGetEvent)
		api.PATCH("/events/:id", s.handleUpdateEvent)
		api.DELETE("/events/:id", s.handleDeleteEvent)

		api.GET("/stats/completion-rate", s.handleCompletionRate)
		api.GET("/stats/most-completed", s.handleMostCompleted)
		api.GET("/stats/per-task", s.handlePerTask)
	}

	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[info] http api listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("[info] http api stopped")
	return nil
}
