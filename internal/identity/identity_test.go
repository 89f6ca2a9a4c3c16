package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer("test-secret", "megakem", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	return issuer
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer("", "megakem", time.Hour); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("NewIssuer(\"\") error = %v, want ErrMissingSecret", err)
	}
}

func TestIssueAndParse(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.Issue("session-1", KindSession)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := issuer.Parse(token, KindSession)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.Subject != "session-1" {
		t.Fatalf("Subject = %q, want session-1", claims.Subject)
	}

	if _, err := issuer.Parse(token, KindAnonymous); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Parse() with wrong kind error = %v, want ErrInvalidToken", err)
	}
}

func TestParseRejectsForeignAndExpiredTokens(t *testing.T) {
	issuer := newTestIssuer(t)

	other, err := NewIssuer("other-secret", "megakem", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	foreign, _ := other.Issue("s", KindSession)
	if _, err := issuer.Parse(foreign, KindSession); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign token error = %v, want ErrInvalidToken", err)
	}

	otherPath, _ := NewIssuer("test-secret", "acme", time.Hour)
	scoped, _ := otherPath.Issue("s", KindSession)
	if _, err := issuer.Parse(scoped, KindSession); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token from another app path error = %v, want ErrInvalidToken", err)
	}

	issued := time.Now().Add(-2 * time.Hour)
	issuer.now = func() time.Time { return issued }
	stale, _ := issuer.Issue("s", KindSession)
	issuer.now = time.Now
	if _, err := issuer.Parse(stale, KindSession); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token error = %v, want ErrInvalidToken", err)
	}
}

func TestAnonymousIsStablePerSession(t *testing.T) {
	issuer := newTestIssuer(t)
	anon := issuer.Anonymous()

	first, err := anon.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	second, err := anon.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if first.UID == "" || first.UID != second.UID {
		t.Fatalf("UIDs = %q, %q; want equal and non-empty", first.UID, second.UID)
	}

	claims, err := issuer.Parse(first.Token, KindAnonymous)
	if err != nil || claims.Subject != first.UID {
		t.Fatalf("anonymous token does not verify: claims=%v err=%v", claims, err)
	}

	otherSession, _ := issuer.Anonymous().Authenticate(context.Background())
	if otherSession.UID == first.UID {
		t.Fatal("two sessions share one anonymous identity")
	}
}

func TestAnonymousRenewsExpiredToken(t *testing.T) {
	issuer, err := NewIssuer("test-secret", "megakem", time.Minute)
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	now := time.Now()
	issuer.now = func() time.Time { return now }
	anon := issuer.Anonymous()

	first, err := anon.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := issuer.Parse(first.Token, KindAnonymous); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Parse(expired) error = %v, want ErrInvalidToken", err)
	}

	renewed, err := anon.Authenticate(context.Background())
	if err != nil {
		t.Fatalf("Authenticate() after expiry error = %v", err)
	}
	if renewed.UID != first.UID {
		t.Fatalf("UID changed on renewal: %q -> %q", first.UID, renewed.UID)
	}
	if _, err := issuer.Parse(renewed.Token, KindAnonymous); err != nil {
		t.Fatalf("renewed token does not verify: %v", err)
	}
}

func TestAnonymousHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestIssuer(t).Anonymous().Authenticate(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Authenticate() error = %v, want context.Canceled", err)
	}
}
