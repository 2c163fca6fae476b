package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"

	authengine "github.com/clinicore/authengine"
)

type memoryProvider struct {
	mu      sync.Mutex
	byEmail map[string]authengine.UserRecord
}

func (p *memoryProvider) GetUserByEmail(_ context.Context, email string) (authengine.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.byEmail[email]
	if !ok {
		return authengine.UserRecord{}, authengine.ErrProviderUserNotFound
	}
	return user, nil
}

func (p *memoryProvider) ExistsByEmail(_ context.Context, email string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.byEmail[email]
	return ok, nil
}

func (p *memoryProvider) CreateUser(_ context.Context, input authengine.CreateUserInput) (authengine.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byEmail[input.Email]; ok {
		return authengine.UserRecord{}, authengine.ErrProviderDuplicateIdentifier
	}
	user := authengine.UserRecord{
		UserID:       uuid.NewString(),
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
	}
	p.byEmail[input.Email] = user
	return user, nil
}

func newGuardedServer(t *testing.T) (*authengine.Engine, string) {
	t.Helper()

	cfg := authengine.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.KeyLength = 16
	cfg.Account.MinPasswordLength = 3

	engine, err := authengine.New().
		WithConfig(cfg).
		WithSigningSecret([]byte("guard-test-secret")).
		WithUserProvider(&memoryProvider{byEmail: make(map[string]authengine.UserRecord)}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	reg, err := engine.Register(context.Background(), authengine.RegisterRequest{
		Email:    "ada@example.com",
		Password: "pw1",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return engine, reg.Token
}

func TestGuardAllowsValidToken(t *testing.T) {
	engine, token := newGuardedServer(t)

	var seen *authengine.AuthResult
	handler := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = AuthResultFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil {
		t.Fatal("expected auth result in the request context")
	}
	if seen.Subject != "ada@example.com" || seen.Role != authengine.RoleUser {
		t.Fatalf("unexpected auth result: %+v", seen)
	}
}

func TestGuardRejections(t *testing.T) {
	engine, token := newGuardedServer(t)

	handler := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for a rejected request")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + token},
		{"lowercase scheme", "bearer " + token},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.token"},
		{"tampered token", "Bearer " + token + "AA"},
	}

	var bodies []string
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/records", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			bodies = append(bodies, rec.Body.String())
		})
	}

	// Every rejection reads the same on the wire.
	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Fatalf("rejection bodies differ: %q vs %q", bodies[0], bodies[i])
		}
	}
}

func TestGuardNilEngine(t *testing.T) {
	handler := Guard(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without an engine")
	}))

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthResultFromContextAbsent(t *testing.T) {
	if _, ok := AuthResultFromContext(context.Background()); ok {
		t.Fatal("expected no auth result in a bare context")
	}
}
