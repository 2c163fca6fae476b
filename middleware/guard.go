package middleware

import (
	"context"
	"net/http"
	"strings"

	authengine "github.com/clinicore/authengine"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the validated claims injected by [Guard].
func AuthResultFromContext(ctx context.Context) (*authengine.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*authengine.AuthResult)
	return res, ok
}

// Guard wraps a handler so it only runs for requests carrying a valid bearer
// token. All failure branches respond 401 with a generic body: callers must
// not be able to distinguish a missing header from a bad signature.
func Guard(engine *authengine.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := engine.Validate(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
