package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brightline/coi-tracker/internal/pkg/httputil"
	certsvc "github.com/brightline/coi-tracker/internal/service/certificate"
)

// maxUploadBytes caps certificate documents at 20 MB.
const maxUploadBytes = 20 << 20

// handleUploadCertificate accepts a multipart form with a "document" file
// field, stores it and runs extraction synchronously. The response carries
// the post-extraction certificate so the caller sees extracted or failed
// immediately.
func (s *Server) handleUploadCertificate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("document")
	if err != nil {
		httputil.BadRequest(w, "missing document file field")
		return
	}
	defer file.Close()

	doc, err := io.ReadAll(file)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	cert, err := s.certificates.Upload(r.Context(), orgFrom(r.Context()),
		chi.URLParam(r, "entityID"), header.Filename, doc)
	if err != nil {
		writeCertificateError(w, err)
		return
	}
	httputil.Created(w, cert)
}

func (s *Server) handleGetCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := s.certificates.Get(r.Context(), orgFrom(r.Context()), chi.URLParam(r, "certificateID"))
	if err != nil {
		writeCertificateError(w, err)
		return
	}
	httputil.OK(w, cert)
}

func (s *Server) handleListCertificates(w http.ResponseWriter, r *http.Request) {
	out, err := s.certificates.ListByEntity(r.Context(), orgFrom(r.Context()), chi.URLParam(r, "entityID"))
	if err != nil {
		writeCertificateError(w, err)
		return
	}
	httputil.OK(w, out)
}

func (s *Server) handleConfirmCertificate(w http.ResponseWriter, r *http.Request) {
	cert, err := s.certificates.Confirm(r.Context(), orgFrom(r.Context()), chi.URLParam(r, "certificateID"))
	if err != nil {
		writeCertificateError(w, err)
		return
	}
	httputil.OK(w, cert)
}

func (s *Server) handleCertificateCoverages(w http.ResponseWriter, r *http.Request) {
	out, err := s.certificates.Coverages(r.Context(), orgFrom(r.Context()), chi.URLParam(r, "certificateID"))
	if err != nil {
		writeCertificateError(w, err)
		return
	}
	httputil.OK(w, out)
}

func (s *Server) handleCertificateResults(w http.ResponseWriter, r *http.Request) {
	out, err := s.certificates.Results(r.Context(), orgFrom(r.Context()), chi.URLParam(r, "certificateID"))
	if err != nil {
		writeCertificateError(w, err)
		return
	}
	httputil.OK(w, out)
}

// handleSweep triggers a notification sweep outside the daily schedule.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if s.sweep == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "sweep not available on this instance")
		return
	}
	report, err := s.sweep(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, report)
}

func writeCertificateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, certsvc.ErrNotFound), errors.Is(err, certsvc.ErrEntityNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, certsvc.ErrInvalidTransition):
		httputil.UnprocessableEntity(w, err.Error())
	case errors.Is(err, certsvc.ErrEmptyDocument):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
