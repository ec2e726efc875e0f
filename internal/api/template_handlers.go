package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brightline/coi-tracker/internal/pkg/httputil"
	templatesvc "github.com/brightline/coi-tracker/internal/service/template"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	out, err := s.templates.List(r.Context(), orgFrom(r.Context()))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, out)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.templates.Get(r.Context(), orgFrom(r.Context()), chi.URLParam(r, "templateID"))
	if err != nil {
		writeTemplateError(w, err)
		return
	}
	httputil.OK(w, tpl)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in templatesvc.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	tpl, err := s.templates.Create(r.Context(), orgFrom(r.Context()), in)
	if err != nil {
		writeTemplateError(w, err)
		return
	}
	httputil.Created(w, tpl)
}

func (s *Server) handleUpdateTemplateMeta(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name         string `json:"name"`
		RequiredName string `json:"required_name"`
	}
	if !httputil.Decode(w, r, &in) {
		return
	}
	orgID := orgFrom(r.Context())
	id := chi.URLParam(r, "templateID")
	if err := s.templates.UpdateMeta(r.Context(), orgID, id, in.Name, in.RequiredName); err != nil {
		writeTemplateError(w, err)
		return
	}
	tpl, err := s.templates.Get(r.Context(), orgID, id)
	if err != nil {
		writeTemplateError(w, err)
		return
	}
	httputil.OK(w, tpl)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.templates.Delete(r.Context(), orgFrom(r.Context()), chi.URLParam(r, "templateID")); err != nil {
		writeTemplateError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (s *Server) handleAddRequirement(w http.ResponseWriter, r *http.Request) {
	var in templatesvc.RequirementInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	req, err := s.templates.AddRequirement(r.Context(), orgFrom(r.Context()), chi.URLParam(r, "templateID"), in)
	if err != nil {
		writeTemplateError(w, err)
		return
	}
	httputil.Created(w, req)
}

func (s *Server) handleUpdateRequirement(w http.ResponseWriter, r *http.Request) {
	var in templatesvc.RequirementInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	err := s.templates.UpdateRequirement(r.Context(), orgFrom(r.Context()),
		chi.URLParam(r, "templateID"), chi.URLParam(r, "requirementID"), in)
	if err != nil {
		writeTemplateError(w, err)
		return
	}
	httputil.NoContent(w)
}

func (s *Server) handleRemoveRequirement(w http.ResponseWriter, r *http.Request) {
	err := s.templates.RemoveRequirement(r.Context(), orgFrom(r.Context()),
		chi.URLParam(r, "templateID"), chi.URLParam(r, "requirementID"))
	if err != nil {
		writeTemplateError(w, err)
		return
	}
	httputil.NoContent(w)
}

// handleRecalculate re-runs the cascade on demand, e.g. after a partial
// failure left some entities stale.
func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	if _, err := s.templates.Get(r.Context(), orgFrom(r.Context()), chi.URLParam(r, "templateID")); err != nil {
		writeTemplateError(w, err)
		return
	}
	report, err := s.compliance.Recalculate(r.Context(), chi.URLParam(r, "templateID"))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}

func writeTemplateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, templatesvc.ErrNotFound), errors.Is(err, templatesvc.ErrRequirementNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, templatesvc.ErrSystemTemplate):
		httputil.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, templatesvc.ErrTemplateReferenced):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, templatesvc.ErrDuplicateRequirement):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, templatesvc.ErrInvalidCoverage):
		httputil.UnprocessableEntity(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
