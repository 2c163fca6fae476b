package authengine

import (
	"context"
	"errors"
	"log"

	"github.com/clinicore/authengine/cache"
	"github.com/clinicore/authengine/jwt"
	"github.com/clinicore/authengine/password"
	"github.com/clinicore/authengine/record"
)

// Engine defines a public type used by authengine APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	hasher       *password.Hasher
	tokens       *jwt.Manager
	userProvider UserProvider
	roles        map[Role]struct{}
	metrics      *Metrics
	audit        *auditDispatcher
}

// Close describes the close operation and its observable behavior.
//
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters: map[MetricID]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Unknown email and wrong password both fail with [ErrInvalidCredentials];
// callers must not be able to tell which branch was taken. The internal audit
// event carries the reason for operators. A provider failure that is not a
// missing user surfaces as [ErrProviderUnavailable].
func (e *Engine) Login(ctx context.Context, email, plaintext string) (string, error) {
	if e == nil || e.hasher == nil || e.tokens == nil || e.userProvider == nil {
		return "", ErrEngineNotReady
	}

	email = NormalizeEmail(email)
	if email == "" || plaintext == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "empty_input",
			}
		})
		return "", ErrInvalidCredentials
	}

	user, err := e.userProvider.GetUserByEmail(ctx, email)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		if !errors.Is(err, ErrProviderUserNotFound) {
			// A failing credential store is an outage, not a bad credential.
			e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrProviderUnavailable, func() map[string]string {
				return map[string]string{
					"reason": "lookup_failed",
				}
			})
			return "", ErrProviderUnavailable
		}
		e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "user_not_found",
			}
		})
		return "", ErrInvalidCredentials
	}

	// A malformed stored hash is a verification failure, never a crash.
	ok, err := e.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.UserID, email, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "password_mismatch",
			}
		})
		return "", ErrInvalidCredentials
	}
	plaintext = ""

	token, err := e.tokens.Issue(user.Email, string(user.Role))
	if err != nil {
		log.Print("authengine: token issuance failed after successful verification")
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.UserID, email, err, func() map[string]string {
			return map[string]string{
				"reason": "token_issuance",
			}
		})
		return "", ErrUnauthorized
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricTokenIssued)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.UserID, email, nil, nil)
	return token, nil
}

// NewRecordService constructs a record.Service backed by store, fronted by a
// cache bounded per Config.Cache and wired into the engine's cache metrics.
func (e *Engine) NewRecordService(store record.Store) (*record.Service, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	c, err := cache.New[record.Record](cache.Config{
		MaxEntries: e.config.Cache.MaxEntries,
		OnHit:      func() { e.metricInc(MetricCacheHit) },
		OnMiss:     func() { e.metricInc(MetricCacheMiss) },
		OnEviction: func() { e.metricInc(MetricCacheEviction) },
	})
	if err != nil {
		return nil, err
	}

	return record.NewService(store, c)
}
