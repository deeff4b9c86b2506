package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskit/internal/clock"
	"taskit/internal/model"
	"taskit/internal/service"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Anchored    bool   `json:"anchored"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type dateRequest struct {
	Date string `json:"date"`
}

func (s *Server) handleListToday(c *gin.Context) {
	view, err := s.svc.Due.ListToday(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	task, err := s.svc.Tasks.CreateTask(c.Request.Context(), currentUser(c), service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Kind:        model.TaskKind(req.Kind),
		Anchored:    req.Anchored,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	task, err := s.svc.Tasks.GetTask(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	task, err := s.svc.Tasks.UpdateTask(c.Request.Context(), currentUser(c), id, service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Tasks.DeleteTask(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleDue answers "what was due on ?date=" (today when omitted).
func (s *Server) handleDue(c *gin.Context) {
	d, ok := s.dateOrToday(c, c.Query("date"))
	if !ok {
		return
	}
	listing, err := s.svc.Due.GetDue(c.Request.Context(), currentUser(c), d)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (s *Server) handleSetDaily(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.Date == "" {
		req.Date = c.Query("date")
	}
	s.setDaily(c, id, req.Date, true)
}

func (s *Server) handleUnsetDaily(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s.setDaily(c, id, c.Query("date"), false)
}

func (s *Server) setDaily(c *gin.Context, id uint, rawDate string, completed bool) {
	d, ok := s.dateOrToday(c, rawDate)
	if !ok {
		return
	}
	done, err := s.svc.Due.SetDailyCompletion(c.Request.Context(), currentUser(c), id, d, completed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "date": d, "completed": done})
}

func (s *Server) handleCompleteLongTerm(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.Date == "" {
		req.Date = c.Query("date")
	}
	var on *clock.Date
	if req.Date != "" {
		d, ok := s.dateOrToday(c, req.Date)
		if !ok {
			return
		}
		on = &d
	}
	task, err := s.svc.LongTerm.Complete(c.Request.Context(), currentUser(c), id, on)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleUncompleteLongTerm(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	task, err := s.svc.LongTerm.Uncomplete(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleToggleAnchor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	anchored, err := s.svc.Due.ToggleAnchor(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "anchored": anchored})
}

// bindOptionalJSON decodes the body when there is one.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid JSON body")
		return false
	}
	return true
}
