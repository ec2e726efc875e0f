package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testServer(sweep func(ctx context.Context) (interface{}, error)) *Server {
	return NewServer(nil, nil, nil, nil, nil, nil, sweep)
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
}

func TestAPIRequiresOrgHeader(t *testing.T) {
	srv := testServer(func(context.Context) (interface{}, error) {
		return map[string]int{"sent": 0}, nil
	})
	router := srv.Routes()

	req := httptest.NewRequest(http.MethodPost, "/api/sweep", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("no header: status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/sweep", nil)
	req.Header.Set(orgHeader, "org-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("with header: status = %d, want 200", rec.Code)
	}
}

func TestSweepUnavailableWithoutRunner(t *testing.T) {
	srv := testServer(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/sweep", nil)
	req.Header.Set(orgHeader, "org-1")
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
