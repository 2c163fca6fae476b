package authengine

import (
	"context"
	"testing"
)

func newBenchmarkEngine(b *testing.B) (*Engine, string) {
	b.Helper()

	cfg := DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.KeyLength = 16
	cfg.Account.MinPasswordLength = 3

	engine, err := New().
		WithConfig(cfg).
		WithSigningSecret([]byte("benchmark-signing-secret")).
		WithUserProvider(newMemoryProvider()).
		Build()
	if err != nil {
		b.Fatalf("Build failed: %v", err)
	}
	b.Cleanup(engine.Close)

	reg, err := engine.Register(context.Background(), RegisterRequest{
		Email:    "bench@example.com",
		Password: "pw1",
	})
	if err != nil {
		b.Fatalf("Register failed: %v", err)
	}
	return engine, reg.Token
}

// Validate is the hot path: pure signature + expiry check, no store.
func BenchmarkValidate(b *testing.B) {
	engine, token := newBenchmarkEngine(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Validate(context.Background(), token); err != nil {
			b.Fatalf("validate failed: %v", err)
		}
	}
}

func BenchmarkValidateParallel(b *testing.B) {
	engine, token := newBenchmarkEngine(b)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := engine.Validate(context.Background(), token); err != nil {
				b.Fatalf("validate failed: %v", err)
			}
		}
	})
}

func BenchmarkValidateRejected(b *testing.B) {
	engine, token := newBenchmarkEngine(b)
	tampered := token + "AA"

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Validate(context.Background(), tampered); err == nil {
			b.Fatal("expected rejection")
		}
	}
}

// Login is argon2-bound; this benchmark mostly measures the configured KDF
// parameters.
func BenchmarkLogin(b *testing.B) {
	engine, _ := newBenchmarkEngine(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Login(context.Background(), "bench@example.com", "pw1"); err != nil {
			b.Fatalf("login failed: %v", err)
		}
	}
}
