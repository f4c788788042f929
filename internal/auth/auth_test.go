package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Ali4mini/internal-comms/internal/domain"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	iss := NewIssuer("secret", time.Hour)
	iss.now = func() time.Time { return now }
	ver := NewVerifier("secret")
	ver.now = func() time.Time { return now.Add(30 * time.Minute) }

	token, err := iss.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	ident, err := ver.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ident.Username != "alice" || ident.Role != domain.DefaultRole {
		t.Fatalf("unexpected identity: %#v", ident)
	}
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	iss := NewIssuer("secret", time.Hour)
	iss.now = func() time.Time { return now }
	ver := NewVerifier("secret")
	ver.now = func() time.Time { return now.Add(time.Hour + time.Second) }

	token, err := iss.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := ver.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err=%v, want ErrTokenInvalid", err)
	}
}

func TestVerify_AcceptsUntilExpiry(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	iss := NewIssuer("secret", time.Hour)
	iss.now = func() time.Time { return now }

	token, err := iss.Issue("bob")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	ver := NewVerifier("secret")
	ver.now = func() time.Time { return now.Add(59 * time.Minute) }
	if _, err := ver.Verify(token); err != nil {
		t.Fatalf("Verify just before expiry: %v", err)
	}
}

func TestVerify_RejectsTamperedSignature(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	token, err := iss.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	ver := NewVerifier("secret")
	if _, err := ver.Verify(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err=%v, want ErrTokenInvalid", err)
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	iss := NewIssuer("secret-a", time.Hour)
	token, err := iss.Issue("alice")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	ver := NewVerifier("secret-b")
	if _, err := ver.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err=%v, want ErrTokenInvalid", err)
	}
}

func TestVerify_RejectsMissingToken(t *testing.T) {
	ver := NewVerifier("secret")
	if _, err := ver.Verify(""); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("err=%v, want ErrTokenMissing", err)
	}
}

func TestVerify_RejectsGarbage(t *testing.T) {
	ver := NewVerifier("secret")
	if _, err := ver.Verify("not.a.jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err=%v, want ErrTokenInvalid", err)
	}
}

func TestIssue_RejectsEmptyUsername(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	if _, err := iss.Issue(""); !errors.Is(err, domain.ErrUsernameEmpty) {
		t.Fatalf("err=%v, want ErrUsernameEmpty", err)
	}
}

func TestIssue_RejectsOverlongUsername(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	long := strings.Repeat("x", domain.MaxUsernameLen+1)
	if _, err := iss.Issue(long); !errors.Is(err, domain.ErrUsernameTooLong) {
		t.Fatalf("err=%v, want ErrUsernameTooLong", err)
	}
}
