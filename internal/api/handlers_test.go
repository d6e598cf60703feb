package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/emviapp/affiliate-payout-service/internal/app"
	"github.com/emviapp/affiliate-payout-service/internal/domain"
)

type serviceStub struct {
	result   *app.SettlementResult
	runErr   error
	payouts  []domain.Payout
	listErr  error
	listedID uuid.UUID
}

func (s *serviceStub) RunSettlement(ctx context.Context) (*app.SettlementResult, error) {
	if s.runErr != nil {
		return nil, s.runErr
	}
	return s.result, nil
}

func (s *serviceStub) ListPayoutsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Payout, error) {
	return s.payouts, s.listErr
}

func (s *serviceStub) ListPayoutsByAffiliate(ctx context.Context, affiliateID uuid.UUID) ([]domain.Payout, error) {
	s.listedID = affiliateID
	return s.payouts, s.listErr
}

func (s *serviceStub) GetPendingEarnings(ctx context.Context, userID uuid.UUID) (*app.PendingEarnings, error) {
	return &app.PendingEarnings{}, nil
}

func newTestRouter(stub *serviceStub) http.Handler {
	return NewRouter(NewHandler(stub), "", "test-internal-key")
}

func TestRunPayoutsEndpoint_ReturnsRunSummary(t *testing.T) {
	stub := &serviceStub{result: &app.SettlementResult{
		Success:    true,
		Period:     app.SettlementPeriodJSON{Start: "2026-08-10", End: "2026-08-16"},
		Processed:  3,
		Successful: 2,
		Failed:     1,
	}}

	req := httptest.NewRequest(http.MethodPost, "/internal/payouts/run", nil)
	req.Header.Set("X-Internal-API-Key", "test-internal-key")
	rec := httptest.NewRecorder()

	newTestRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool `json:"success"`
		Period  struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"period"`
		Processed  int `json:"processed"`
		Successful int `json:"successful"`
		Failed     int `json:"failed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body.Success || body.Period.Start != "2026-08-10" || body.Period.End != "2026-08-16" {
		t.Fatalf("unexpected summary body: %+v", body)
	}
	if body.Processed != 3 || body.Successful != 2 || body.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", body)
	}
}

func TestRunPayoutsEndpoint_RequiresInternalKey(t *testing.T) {
	stub := &serviceStub{result: &app.SettlementResult{Success: true}}

	req := httptest.NewRequest(http.MethodPost, "/internal/payouts/run", nil)
	rec := httptest.NewRecorder()

	newTestRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without internal key, got %d", rec.Code)
	}
}

func TestRunPayoutsEndpoint_BatchFailureIs500(t *testing.T) {
	stub := &serviceStub{runErr: errors.New("failed to enumerate affiliates with conversions")}

	req := httptest.NewRequest(http.MethodPost, "/internal/payouts/run", nil)
	req.Header.Set("X-Internal-API-Key", "test-internal-key")
	rec := httptest.NewRecorder()

	newTestRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for batch-level failure, got %d", rec.Code)
	}
}

func TestListAffiliatePayouts_RejectsInvalidID(t *testing.T) {
	stub := &serviceStub{}

	req := httptest.NewRequest(http.MethodGet, "/internal/affiliates/not-a-uuid/payouts", nil)
	req.Header.Set("X-Internal-API-Key", "test-internal-key")
	rec := httptest.NewRecorder()

	newTestRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid affiliate id, got %d", rec.Code)
	}
}

func TestListAffiliatePayouts_PassesIDThrough(t *testing.T) {
	affiliateID := uuid.New()
	stub := &serviceStub{payouts: []domain.Payout{{ID: uuid.New(), AffiliateID: affiliateID, Status: domain.PayoutStatusPaid}}}

	req := httptest.NewRequest(http.MethodGet, "/internal/affiliates/"+affiliateID.String()+"/payouts", nil)
	req.Header.Set("X-Internal-API-Key", "test-internal-key")
	rec := httptest.NewRecorder()

	newTestRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.listedID != affiliateID {
		t.Fatalf("expected handler to query affiliate %s, got %s", affiliateID, stub.listedID)
	}
}

func TestAffiliatePayouts_RequiresAuthHeader(t *testing.T) {
	stub := &serviceStub{}

	req := httptest.NewRequest(http.MethodGet, "/affiliate/payouts", nil)
	rec := httptest.NewRecorder()

	newTestRouter(stub).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", rec.Code)
	}
}
