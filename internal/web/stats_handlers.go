package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskit/internal/service"
)

func (s *Server) handleCompletionRate(c *gin.Context) {
	g, err := service.ParseGranularity(c.DefaultQuery("granularity", string(service.GranularityDay)))
	if err != nil {
		respondError(c, err)
		return
	}
	buckets, err := s.svc.Stats.CompletionRate(c.Request.Context(), currentUser(c), g)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"granularity": g, "buckets": buckets})
}

func (s *Server) handleMostCompleted(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	top, err := s.svc.Stats.MostCompleted(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, top)
}

func (s *Server) handlePerTask(c *gin.Context) {
	mode, err := service.ParseRateMode(c.Query("mode"))
	if err != nil {
		respondError(c, err)
		return
	}
	rates, err := s.svc.Stats.PerTaskRates(c.Request.Context(), currentUser(c), mode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": mode, "tasks": rates})
}
