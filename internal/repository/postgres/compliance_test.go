package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/brightline/coi-tracker/internal/domain"
	"github.com/brightline/coi-tracker/internal/service/compliance"
)

func TestReplaceResultsRunsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewComplianceRepo(db)
	results := []domain.ComplianceResult{
		{ID: "res-1", CertificateID: "cert-1", RequirementID: "req-1", Status: domain.ResultMet},
		{ID: "res-2", CertificateID: "cert-1", RequirementID: "req-2", Status: domain.ResultNotMet, Gap: "Additional Insured not listed"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM compliance_results`).
		WithArgs("cert-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO compliance_results`).
		WithArgs("res-1", "cert-1", "req-1", string(domain.ResultMet), "", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO compliance_results`).
		WithArgs("res-2", "cert-1", "req-2", string(domain.ResultNotMet), "Additional Insured not listed", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.ReplaceResults(context.Background(), "cert-1", results); err != nil {
		t.Fatalf("ReplaceResults: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReplaceResultsRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewComplianceRepo(db)
	results := []domain.ComplianceResult{
		{ID: "res-1", CertificateID: "cert-1", RequirementID: "req-1", Status: domain.ResultMet},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM compliance_results`).
		WithArgs("cert-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO compliance_results`).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	if err := repo.ReplaceResults(context.Background(), "cert-1", results); err == nil {
		t.Fatal("ReplaceResults succeeded, want error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLatestConfirmedCertificateNoRows(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewComplianceRepo(db)

	mock.ExpectQuery(`SELECT .+ FROM certificates`).
		WithArgs("ent-1", string(domain.ProcessingStatusReviewConfirmed)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.LatestConfirmedCertificate(context.Background(), "ent-1")
	if !errors.Is(err, compliance.ErrNoCertificate) {
		t.Fatalf("err = %v, want ErrNoCertificate", err)
	}
}
