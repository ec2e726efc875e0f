package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/brightline/coi-tracker/internal/pkg/httputil"
)

// orgHeader carries the caller's organization. Requests without it are
// rejected; multi-tenancy is enforced at every repository query.
const orgHeader = "X-Organization-ID"

type orgContextKey struct{}

// Routes builds the router with middleware and all endpoints.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", orgHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(requireOrg)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleCreateTemplate)
			r.Get("/{templateID}", s.handleGetTemplate)
			r.Patch("/{templateID}", s.handleUpdateTemplateMeta)
			r.Delete("/{templateID}", s.handleDeleteTemplate)
			r.Post("/{templateID}/requirements", s.handleAddRequirement)
			r.Put("/{templateID}/requirements/{requirementID}", s.handleUpdateRequirement)
			r.Delete("/{templateID}/requirements/{requirementID}", s.handleRemoveRequirement)
			r.Post("/{templateID}/recalculate", s.handleRecalculate)
		})

		r.Route("/entities", func(r chi.Router) {
			r.Get("/", s.handleListEntities)
			r.Post("/", s.handleCreateEntity)
			r.Get("/{entityID}", s.handleGetEntity)
			r.Patch("/{entityID}", s.handleUpdateEntity)
			r.Delete("/{entityID}", s.handleDeleteEntity)
			r.Put("/{entityID}/template", s.handleAssignTemplate)
			r.Put("/{entityID}/pause", s.handleSetPaused)
			r.Get("/{entityID}/certificates", s.handleListCertificates)
			r.Post("/{entityID}/certificates", s.handleUploadCertificate)
			r.Get("/{entityID}/email-log", s.handleEmailLog)
		})

		r.Route("/certificates", func(r chi.Router) {
			r.Get("/{certificateID}", s.handleGetCertificate)
			r.Post("/{certificateID}/confirm", s.handleConfirmCertificate)
			r.Get("/{certificateID}/coverages", s.handleCertificateCoverages)
			r.Get("/{certificateID}/results", s.handleCertificateResults)
		})

		r.Post("/sweep", s.handleSweep)
	})

	return r
}

func requireOrg(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID := r.Header.Get(orgHeader)
		if orgID == "" {
			httputil.BadRequest(w, "missing "+orgHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(withOrg(r.Context(), orgID)))
	})
}
