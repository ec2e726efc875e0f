package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brightline/coi-tracker/internal/domain"
	"github.com/brightline/coi-tracker/internal/pkg/httputil"
	entitysvc "github.com/brightline/coi-tracker/internal/service/entity"
)

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	f := entitysvc.ListFilter{
		PropertyID: r.URL.Query().Get("property_id"),
		Category:   domain.EntityCategory(r.URL.Query().Get("category")),
		Status:     domain.ComplianceStatus(r.URL.Query().Get("status")),
	}
	out, err := s.entities.List(r.Context(), orgFrom(r.Context()), f)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, out)
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	e, err := s.entities.Get(r.Context(), orgFrom(r.Context()), chi.URLParam(r, "entityID"))
	if err != nil {
		writeEntityError(w, err)
		return
	}
	httputil.OK(w, e)
}

func (s *Server) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PropertyID   string                `json:"property_id"`
		Category     domain.EntityCategory `json:"category"`
		Name         string                `json:"name"`
		ContactEmail string                `json:"contact_email"`
		ManagerEmail string                `json:"manager_email"`
	}
	if !httputil.Decode(w, r, &in) {
		return
	}
	e, err := s.entities.Create(r.Context(), entitysvc.CreateInput{
		OrganizationID: orgFrom(r.Context()),
		PropertyID:     in.PropertyID,
		Category:       in.Category,
		Name:           in.Name,
		ContactEmail:   in.ContactEmail,
		ManagerEmail:   in.ManagerEmail,
	})
	if err != nil {
		writeEntityError(w, err)
		return
	}
	httputil.Created(w, e)
}

func (s *Server) handleUpdateEntity(w http.ResponseWriter, r *http.Request) {
	var in entitysvc.UpdateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	e, err := s.entities.Update(r.Context(), orgFrom(r.Context()), chi.URLParam(r, "entityID"), in)
	if err != nil {
		writeEntityError(w, err)
		return
	}
	httputil.OK(w, e)
}

func (s *Server) handleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	if err := s.entities.Delete(r.Context(), orgFrom(r.Context()), chi.URLParam(r, "entityID")); err != nil {
		writeEntityError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (s *Server) handleAssignTemplate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TemplateID string `json:"template_id"`
	}
	if !httputil.Decode(w, r, &in) {
		return
	}
	e, err := s.entities.AssignTemplate(r.Context(), orgFrom(r.Context()), chi.URLParam(r, "entityID"), in.TemplateID)
	if err != nil {
		writeEntityError(w, err)
		return
	}
	httputil.OK(w, e)
}

func (s *Server) handleSetPaused(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Paused bool `json:"paused"`
	}
	if !httputil.Decode(w, r, &in) {
		return
	}
	e, err := s.entities.SetPaused(r.Context(), orgFrom(r.Context()), chi.URLParam(r, "entityID"), in.Paused)
	if err != nil {
		writeEntityError(w, err)
		return
	}
	httputil.OK(w, e)
}

func (s *Server) handleEmailLog(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")
	// Org scoping first; the log table itself has no org column.
	if _, err := s.entities.Get(r.Context(), orgFrom(r.Context()), entityID); err != nil {
		writeEntityError(w, err)
		return
	}
	entries, err := s.emailLog.EntriesByEntity(r.Context(), entityID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, entries)
}

func writeEntityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entitysvc.ErrNotFound), errors.Is(err, entitysvc.ErrTemplateNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, entitysvc.ErrInvalidCategory), errors.Is(err, entitysvc.ErrCategoryMismatch):
		httputil.UnprocessableEntity(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
