package authengine

import (
	"context"
	"errors"
)

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The existence pre-check is a fast-path short-circuit only: the provider's
// CreateUser enforces uniqueness atomically, and a late
// [ErrProviderDuplicateIdentifier] maps to the same [ErrAccountExists] as the
// early check, so concurrent registrations for one email yield exactly one
// account.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if e == nil || e.hasher == nil || e.tokens == nil || e.userProvider == nil {
		return nil, ErrEngineNotReady
	}

	email := NormalizeEmail(req.Email)
	if email == "" || !validEmailShape(email) {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, ErrRegistrationInvalid, func() map[string]string {
			return map[string]string{
				"reason": "invalid_email",
			}
		})
		return nil, ErrRegistrationInvalid
	}
	if len(req.Password) < e.config.Account.MinPasswordLength {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, ErrPasswordPolicy, func() map[string]string {
			return map[string]string{
				"reason": "password_too_short",
			}
		})
		return nil, ErrPasswordPolicy
	}

	role := req.Role
	if role == "" {
		role = e.config.Account.DefaultRole
	}
	if _, ok := e.roles[role]; !ok {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, ErrRoleInvalid, func() map[string]string {
			return map[string]string{
				"reason": "role_invalid",
			}
		})
		return nil, ErrRoleInvalid
	}

	exists, err := e.userProvider.ExistsByEmail(ctx, email)
	if err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, ErrProviderUnavailable, func() map[string]string {
			return map[string]string{
				"reason": "existence_check_failed",
			}
		})
		return nil, ErrProviderUnavailable
	}
	if exists {
		e.metricInc(MetricRegisterDuplicate)
		e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", email, ErrAccountExists, nil)
		return nil, ErrAccountExists
	}

	passwordHash, err := e.hasher.Hash(req.Password)
	if err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, ErrPasswordPolicy, func() map[string]string {
			return map[string]string{
				"reason": "hash_failed",
			}
		})
		return nil, ErrPasswordPolicy
	}

	created, err := e.userProvider.CreateUser(ctx, CreateUserInput{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, ErrProviderDuplicateIdentifier) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", email, ErrAccountExists, func() map[string]string {
				return map[string]string{
					"reason": "store_uniqueness",
				}
			})
			return nil, ErrAccountExists
		}
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, err, func() map[string]string {
			return map[string]string{
				"reason": "provider_create_failed",
			}
		})
		return nil, ErrProviderUnavailable
	}

	token, err := e.tokens.Issue(created.Email, string(created.Role))
	if err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, created.UserID, email, err, func() map[string]string {
			return map[string]string{
				"reason": "token_issuance",
			}
		})
		return nil, ErrUnauthorized
	}

	e.metricInc(MetricRegisterSuccess)
	e.metricInc(MetricTokenIssued)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, created.UserID, email, nil, nil)

	return &RegisterResult{
		UserID: created.UserID,
		Email:  created.Email,
		Role:   created.Role,
		Token:  token,
	}, nil
}

// validEmailShape is the boundary input-contract check: one "@" with
// non-empty local and domain parts. Full RFC validation is out of scope.
func validEmailShape(email string) bool {
	at := -1
	for i, r := range email {
		if r == '@' {
			if at >= 0 {
				return false
			}
			at = i
		}
	}
	return at > 0 && at < len(email)-1
}
