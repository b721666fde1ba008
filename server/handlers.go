package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vidrelay/vidrelay/catalog"
	"github.com/vidrelay/vidrelay/content"
	"github.com/vidrelay/vidrelay/failover"
)

const scopeHeader = "X-Scope"

type providerView struct {
	ID      string         `json:"id"`
	Ordinal int            `json:"ordinal"`
	Label   string         `json:"label"`
	Name    string         `json:"name"`
	Types   []content.Type `json:"types"`
}

type openRequest struct {
	Scope     string `json:"scope"`
	ContentID string `json:"content_id" binding:"required"`
	Type      string `json:"type" binding:"required"`
	Season    *int   `json:"season"`
	Episode   *int   `json:"episode"`
	Autoplay  bool   `json:"autoplay"`
}

type switchRequest struct {
	Provider string `json:"provider" binding:"required"`
}

type sessionView struct {
	Session string `json:"session"`
	failover.Snapshot
	RetryAfter int `json:"retry_after,omitempty"`
}

type errorView struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Len()})
}

func (s *Server) handleProviders(c *gin.Context) {
	descriptors := s.catalog.All()
	if raw := c.Query("type"); raw != "" {
		t, err := content.ParseType(raw)
		if err != nil {
			s.fail(c, err)
			return
		}
		descriptors = s.catalog.Providers(t)
	}

	c.JSON(http.StatusOK, lo.Map(descriptors, func(d catalog.Descriptor, _ int) providerView {
		return providerView{
			ID:      d.ID,
			Ordinal: s.catalog.Ordinal(d.ID),
			Label:   s.catalog.Label(d.ID),
			Name:    d.Name,
			Types:   d.Types,
		}
	}))
}

func (s *Server) handleOpen(c *gin.Context) {
	var body openRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorView{Error: err.Error()})
		return
	}

	scope := strings.TrimSpace(lo.CoalesceOrEmpty(body.Scope, c.GetHeader(scopeHeader)))
	if scope == "" {
		c.JSON(http.StatusBadRequest, errorView{Error: "scope is required, either in the body or the " + scopeHeader + " header"})
		return
	}

	t, err := content.ParseType(body.Type)
	if err != nil {
		s.fail(c, err)
		return
	}

	req := content.Request{
		ContentID: body.ContentID,
		Type:      t,
		Season:    optional(body.Season),
		Episode:   optional(body.Episode),
		Autoplay:  body.Autoplay,
	}

	session, created, err := s.sessions.Open(scope, req)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.respond(c, lo.Ternary(created, http.StatusCreated, http.StatusOK), session.ID, session.Snapshot())
}

func (s *Server) handleGet(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	s.respond(c, http.StatusOK, session.ID, session.Snapshot())
}

func (s *Server) handleAbandon(c *gin.Context) {
	if err := s.sessions.Abandon(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSuccess(c *gin.Context) {
	s.transition(c, (*failover.Controller).ReportSuccess)
}

func (s *Server) handleFailure(c *gin.Context) {
	s.transition(c, (*failover.Controller).ReportFailure)
}

func (s *Server) handleReset(c *gin.Context) {
	s.transition(c, (*failover.Controller).Reset)
}

func (s *Server) handleSwitch(c *gin.Context) {
	var body switchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorView{Error: err.Error()})
		return
	}

	s.transition(c, func(ctrl *failover.Controller) (failover.Snapshot, error) {
		return ctrl.SwitchTo(body.Provider)
	})
}

func (s *Server) transition(c *gin.Context, op func(*failover.Controller) (failover.Snapshot, error)) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	snap, err := op(session.Controller)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.respond(c, http.StatusOK, session.ID, snap)
}

func (s *Server) session(c *gin.Context) (*failover.Session, bool) {
	session, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return session, true
}

func (s *Server) respond(c *gin.Context, code int, id string, snap failover.Snapshot) {
	view := sessionView{Session: id, Snapshot: snap}
	if snap.Status == failover.StatusThrottled {
		view.RetryAfter = snap.RetryAfterSeconds()
		c.Header("Retry-After", strconv.Itoa(view.RetryAfter))
	}
	c.JSON(code, view)
}

func (s *Server) fail(c *gin.Context, err error) {
	c.JSON(statusOf(err), errorView{Error: err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, content.ErrEmptyID),
		errors.Is(err, content.ErrUnknownType),
		errors.Is(err, content.ErrInvalidEpisodeInfo):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, failover.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, failover.ErrIdle),
		errors.Is(err, failover.ErrExhausted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func optional(v *int) mo.Option[int] {
	if v == nil {
		return mo.None[int]()
	}
	return mo.Some(*v)
}
