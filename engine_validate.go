package authengine

import (
	"context"
)

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Validation is a pure function of the signing key and the current time: no
// store round-trip, no revocation list. Structural, signature and expiry
// failures all collapse to [ErrUnauthorized].
func (e *Engine) Validate(ctx context.Context, token string) (*AuthResult, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	if token == "" {
		e.metricInc(MetricTokenRejected)
		return nil, ErrUnauthorized
	}

	claims, err := e.tokens.Parse(token)
	if err != nil {
		e.metricInc(MetricTokenRejected)
		e.emitAudit(ctx, auditEventTokenRejected, false, "", "", ErrTokenInvalid, nil)
		return nil, ErrUnauthorized
	}

	e.metricInc(MetricValidateSuccess)
	return &AuthResult{
		Subject: claims.Subject,
		Role:    Role(claims.Role),
	}, nil
}

// ValidateToken reports whether token is currently valid. It has no side
// effects beyond metrics and audit; a missing, malformed, expired or
// wrongly-signed token returns false.
func (e *Engine) ValidateToken(ctx context.Context, token string) bool {
	_, err := e.Validate(ctx, token)
	return err == nil
}
