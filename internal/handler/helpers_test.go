package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/msomdec/accountd/internal/domain"
	"github.com/msomdec/accountd/internal/handler"
	"github.com/msomdec/accountd/internal/repository/memory"
	"github.com/msomdec/accountd/internal/service"
)

// capturingNotifier stands in for email delivery and hands tokens to tests.
type capturingNotifier struct {
	mu           sync.Mutex
	verification map[string]string
	reset        map[string]string
}

func (n *capturingNotifier) VerificationIssued(ctx context.Context, user *domain.User, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verification[user.Email] = token
	return nil
}

func (n *capturingNotifier) PasswordResetIssued(ctx context.Context, ticket *domain.ResetTicket) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reset[ticket.Email] = ticket.Token
	return nil
}

func (n *capturingNotifier) verificationToken(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.verification[email]
}

func (n *capturingNotifier) resetToken(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.reset[email]
}

func newTestServer(t *testing.T) (*httptest.Server, *capturingNotifier) {
	t.Helper()

	db := memory.New()
	notifier := &capturingNotifier{
		verification: make(map[string]string),
		reset:        make(map[string]string),
	}
	accounts := service.NewAccountService(db.Users(), notifier)

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, accounts, db, zap.NewNop())

	srv := httptest.NewServer(handler.Wrap(mux, node, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv, notifier
}

type apiResponse struct {
	status  int
	message string
	error   string
}

func decodeResponse(t *testing.T, resp *http.Response) apiResponse {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return apiResponse{status: resp.StatusCode, message: body["message"], error: body["error"]}
}

func postJSON(t *testing.T, srv *httptest.Server, path string, payload any) apiResponse {
	t.Helper()

	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return decodeResponse(t, resp)
}

func postQuery(t *testing.T, srv *httptest.Server, pathAndQuery string) apiResponse {
	t.Helper()

	resp, err := http.Post(srv.URL+pathAndQuery, "application/json", nil)
	if err != nil {
		t.Fatalf("POST %s: %v", pathAndQuery, err)
	}
	return decodeResponse(t, resp)
}

func expect(t *testing.T, step string, got apiResponse, status int, text string) {
	t.Helper()
	if got.status != status {
		t.Fatalf("%s: expected status %d, got %d (message=%q error=%q)", step, status, got.status, got.message, got.error)
	}
	body := got.message
	if status != http.StatusOK {
		body = got.error
	}
	if body != text {
		t.Fatalf("%s: expected %q, got %q", step, text, body)
	}
}
