// Package api exposes the compliance tracker over HTTP: template CRUD with
// cascade recalculation, entity management, certificate ingestion and the
// notification audit log.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/brightline/coi-tracker/internal/domain"
	certsvc "github.com/brightline/coi-tracker/internal/service/certificate"
	compliancesvc "github.com/brightline/coi-tracker/internal/service/compliance"
	entitysvc "github.com/brightline/coi-tracker/internal/service/entity"
	templatesvc "github.com/brightline/coi-tracker/internal/service/template"
)

// EmailLogReader reads an entity's notification history.
type EmailLogReader interface {
	EntriesByEntity(ctx context.Context, entityID string) ([]domain.EmailLogEntry, error)
}

// Server holds the HTTP handler dependencies.
type Server struct {
	db           *sql.DB
	templates    *templatesvc.Service
	entities     *entitysvc.Service
	certificates *certsvc.Service
	compliance   *compliancesvc.Service
	emailLog     EmailLogReader
	sweep        func(ctx context.Context) (interface{}, error)
	startTime    time.Time
}

// NewServer wires the services into a server. sweep may be nil when the
// manual sweep trigger should be disabled (worker-only deployments).
func NewServer(
	db *sql.DB,
	templates *templatesvc.Service,
	entities *entitysvc.Service,
	certificates *certsvc.Service,
	compliance *compliancesvc.Service,
	emailLog EmailLogReader,
	sweep func(ctx context.Context) (interface{}, error),
) *Server {
	return &Server{
		db:           db,
		templates:    templates,
		entities:     entities,
		certificates: certificates,
		compliance:   compliance,
		emailLog:     emailLog,
		sweep:        sweep,
		startTime:    time.Now(),
	}
}

// ListenAndServe starts the HTTP server and blocks until ctx is canceled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, host string, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
