package stripeclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateTransfer_SendsFormEncodedRequest(t *testing.T) {
	var gotForm map[string]string
	var gotAuth, gotIdempotency string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/transfers" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", ct)
		}
		gotAuth = r.Header.Get("Authorization")
		gotIdempotency = r.Header.Get("Idempotency-Key")

		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotForm = map[string]string{}
		for key := range r.PostForm {
			gotForm[key] = r.PostForm.Get(key)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"tr_1","object":"transfer","amount":5500,"currency":"usd","destination":"acct_1","created":1756600000}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_abc")
	transfer, err := client.CreateTransfer(context.Background(), TransferRequest{
		Amount:         5500,
		Currency:       "usd",
		Destination:    "acct_1",
		Description:    "Affiliate commission 2026-08-10 to 2026-08-16",
		IdempotencyKey: "affiliate_payout_42",
		Metadata: map[string]string{
			"affiliate_id": "aff-1",
			"payout_id":    "pay-1",
		},
	})
	if err != nil {
		t.Fatalf("CreateTransfer returned error: %v", err)
	}

	if transfer.ID != "tr_1" {
		t.Fatalf("expected transfer id tr_1, got %q", transfer.ID)
	}
	if gotAuth != "Bearer sk_test_abc" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotIdempotency != "affiliate_payout_42" {
		t.Fatalf("expected idempotency key, got %q", gotIdempotency)
	}
	if gotForm["amount"] != "5500" || gotForm["currency"] != "usd" || gotForm["destination"] != "acct_1" {
		t.Fatalf("unexpected form values: %v", gotForm)
	}
	if gotForm["metadata[affiliate_id]"] != "aff-1" || gotForm["metadata[payout_id]"] != "pay-1" {
		t.Fatalf("expected metadata fields in form, got %v", gotForm)
	}
}

func TestCreateTransfer_DecodesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"account_invalid","message":"No such destination"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_abc")
	_, err := client.CreateTransfer(context.Background(), TransferRequest{Amount: 100, Currency: "usd", Destination: "acct_missing"})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}

	var apiErr *ErrorResponse
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *ErrorResponse, got %T: %v", err, err)
	}
	if apiErr.Err.Code != "account_invalid" {
		t.Fatalf("expected code account_invalid, got %q", apiErr.Err.Code)
	}
}

func TestCreateTransfer_UnparsableErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_abc")
	_, err := client.CreateTransfer(context.Background(), TransferRequest{Amount: 100, Currency: "usd", Destination: "acct_1"})
	if err == nil {
		t.Fatal("expected error for 502 response")
	}

	var apiErr *ErrorResponse
	if errors.As(err, &apiErr) {
		t.Fatalf("unparsable body must not produce an ErrorResponse, got %v", err)
	}
}
