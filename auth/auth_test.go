package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/adamspd/FlashMind/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndParse(t *testing.T) {
	store := NewRevocationStore()
	defer store.Close()
	tm := NewTokenManager(testSecret, time.Hour, store)

	token, err := tm.Issue(&models.User{ID: 7, Email: "ann@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token.TokenType != "bearer" || token.AccessToken == "" {
		t.Fatalf("unexpected token response: %+v", token)
	}

	session, err := tm.Parse(token.AccessToken)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if session.UserID != 7 || session.TokenID == "" {
		t.Errorf("unexpected session: %+v", session)
	}
	if !session.ExpiresAt.After(time.Now()) {
		t.Errorf("fresh token should not be expired, expires at %s", session.ExpiresAt)
	}
}

func TestParseRejects(t *testing.T) {
	store := NewRevocationStore()
	defer store.Close()
	tm := NewTokenManager(testSecret, time.Hour, store)

	good, err := tm.Issue(&models.User{ID: 1})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := NewTokenManager(strings.Repeat("x", 32), time.Hour, store)
	foreign, err := other.Issue(&models.User{ID: 1})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	expired := NewTokenManager(testSecret, time.Hour, store)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(&models.User{ID: 1})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	testCases := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong secret", foreign.AccessToken},
		{"expired", old.AccessToken},
		{"tampered", good.AccessToken + "x"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tm.Parse(tc.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestRevoke(t *testing.T) {
	store := NewRevocationStore()
	defer store.Close()
	tm := NewTokenManager(testSecret, time.Hour, store)

	token, err := tm.Issue(&models.User{ID: 3})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	session, err := tm.Parse(token.AccessToken)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	tm.Revoke(session)

	if _, err := tm.Parse(token.AccessToken); !errors.Is(err, ErrRevokedToken) {
		t.Errorf("expected ErrRevokedToken, got %v", err)
	}
}

func TestRevocationStoreSweep(t *testing.T) {
	store := NewRevocationStore()
	defer store.Close()

	now := time.Now()
	store.Revoke("old", now.Add(-time.Minute))
	store.Revoke("live", now.Add(time.Hour))

	if cleaned := store.Sweep(now); cleaned != 1 {
		t.Errorf("expected 1 entry cleaned, got %d", cleaned)
	}
	if store.IsRevoked("old") {
		t.Error("expired entry should be swept")
	}
	if !store.IsRevoked("live") {
		t.Error("live entry should be kept")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 entry left, got %d", store.Len())
	}
}

func TestWelcomeEmail(t *testing.T) {
	es := NewEmailService(&models.EmailConfig{
		FromAddress: "noreply@example.com",
		FromName:    "FlashMind",
		BaseURL:     "https://flashmind.example.com",
	})

	subject, body := es.BuildWelcomeEmail(&models.User{Email: "ann@example.com"})
	if subject == "" {
		t.Error("subject should not be empty")
	}
	if !strings.Contains(body, "ann@example.com") || !strings.Contains(body, "https://flashmind.example.com") {
		t.Errorf("body missing recipient or link: %s", body)
	}

	if es.Configured() {
		t.Error("service without credentials should not be configured")
	}
	if err := es.SendEmail("ann@example.com", subject, body); err != nil {
		t.Errorf("unconfigured SendEmail should log and succeed, got %v", err)
	}

	msg := string(es.buildMessage("ann@example.com", subject, "line one\nline two"))
	if !strings.Contains(msg, "From: FlashMind <noreply@example.com>\r\n") {
		t.Errorf("missing From header: %q", msg)
	}
	if !strings.Contains(msg, "line one\r\nline two") {
		t.Errorf("body lines should use CRLF: %q", msg)
	}
}
