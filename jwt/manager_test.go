package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"strings"
	"testing"
	"time"
)

func hs256Config(ttl time.Duration) Config {
	return Config{
		TTL:           ttl,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("test-signing-secret"),
		Issuer:        "authengine-test",
	}
}

func TestIssueParseRoundTrip(t *testing.T) {
	mgr, err := NewManager(hs256Config(time.Hour))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := mgr.Issue("alice@example.com", "USER")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := mgr.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "alice@example.com" {
		t.Fatalf("expected subject alice@example.com, got %s", claims.Subject)
	}
	if claims.Role != "USER" {
		t.Fatalf("expected role USER, got %s", claims.Role)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatal("expected iat and exp claims to be set")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Fatalf("expected 1h TTL between iat and exp, got %v", got)
	}
}

func TestTokensForSameSubjectDiffer(t *testing.T) {
	mgr, err := NewManager(hs256Config(time.Hour))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	first, err := mgr.Issue("bob@example.com", "USER")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// iat has second resolution; cross a second boundary to observe it.
	time.Sleep(1100 * time.Millisecond)

	second, err := mgr.Issue("bob@example.com", "USER")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if first == second {
		t.Fatal("tokens issued at different times must differ")
	}
}

func TestParseExpiredToken(t *testing.T) {
	mgr, err := NewManager(Config{
		TTL:           time.Nanosecond,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("test-signing-secret"),
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := mgr.Issue("carol@example.com", "USER")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := mgr.Parse(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseWrongSecret(t *testing.T) {
	issuer, err := NewManager(hs256Config(time.Hour))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	token, err := issuer.Issue("dave@example.com", "ADMIN")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	otherCfg := hs256Config(time.Hour)
	otherCfg.PrivateKey = []byte("completely-different-secret")
	verifier, err := NewManager(otherCfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := verifier.Parse(token); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}

func TestParseTamperedToken(t *testing.T) {
	mgr, err := NewManager(hs256Config(time.Hour))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	token, err := mgr.Issue("eve@example.com", "USER")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("expected three JWT segments, got %d", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := mgr.Parse(tampered); err == nil {
		t.Fatal("expected tampered signature to be rejected")
	}
}

func TestParseMalformed(t *testing.T) {
	mgr, err := NewManager(hs256Config(time.Hour))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	for _, input := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := mgr.Parse(input); err == nil {
			t.Fatalf("expected malformed input %q to be rejected", input)
		}
	}
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	mgr, err := NewManager(Config{
		TTL:           time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, err := mgr.Issue("frank@example.com", "ADMIN")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	claims, err := mgr.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "frank@example.com" || claims.Role != "ADMIN" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero TTL", Config{SigningMethod: MethodHS256, PrivateKey: []byte("k")}},
		{"negative leeway", Config{TTL: time.Hour, Leeway: -time.Second, SigningMethod: MethodHS256, PrivateKey: []byte("k")}},
		{"excessive leeway", Config{TTL: time.Hour, Leeway: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("k")}},
		{"hs256 without secret", Config{TTL: time.Hour, SigningMethod: MethodHS256}},
		{"ed25519 without public key", Config{TTL: time.Hour, SigningMethod: MethodEd25519}},
		{"unknown method", Config{TTL: time.Hour, SigningMethod: "rs256", PrivateKey: []byte("k")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewManager(tc.cfg); err == nil {
				t.Fatal("expected config to be rejected")
			}
		})
	}
}
