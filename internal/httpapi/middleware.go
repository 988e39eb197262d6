package httpapi

import (
	"context"
	"net/http"
	"strings"

	"example.com/rocklegends/internal/auth"
)

type ctxKey string

const walletKey ctxKey = "wallet"

func AuthMiddleware(jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			token := strings.TrimPrefix(h, "Bearer ")

			claims, err := auth.Verify(jwtSecret, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), walletKey, claims.Wallet)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WalletFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(walletKey)
	s, ok := v.(string)
	return s, ok
}
