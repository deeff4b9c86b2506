package web

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"taskit/internal/clock"
	"taskit/internal/service"
)

const (
	userHeader = "X-User-ID"
	userKey    = "user_id"
)

// requireUser resolves the caller from the X-User-ID header.
func (s *Server) requireUser(c *gin.Context) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.GetHeader(userHeader)), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid " + userHeader + " header"})
		return
	}
	if err := s.svc.Users.EnsureID(c.Request.Context(), uint(id)); err != nil {
		respondError(c, err)
		c.Abort()
		return
	}
	c.Set(userKey, uint(id))
	c.Next()
}

func currentUser(c *gin.Context) uint {
	return c.GetUint(userKey)
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("[http] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// dateOrToday parses an optional YYYY-MM-DD value.
func (s *Server) dateOrToday(c *gin.Context, raw string) (clock.Date, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.clock.Today(), true
	}
	d, err := clock.ParseDate(raw)
	if err != nil {
		badRequest(c, err.Error())
		return clock.Date{}, false
	}
	return d, true
}
