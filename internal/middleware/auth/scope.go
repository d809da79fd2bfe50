package auth

import (
	"context"
	"net/http"
	"strconv"

	"shopfloor/internal/service"
)

const (
	HeaderTenant = "X-Tenant-ID"
	HeaderUser   = "X-User-ID"
)

type scopeKey struct{}

// Scope достаёт арендатора и пользователя из заголовков, которые проставляет шлюз.
// Без арендатора запрос дальше не идёт: движок не работает вне области видимости.
func Scope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := strconv.ParseInt(r.Header.Get(HeaderTenant), 10, 64)
		if err != nil || tenantID <= 0 {
			http.Error(w, "Missing or invalid "+HeaderTenant, http.StatusUnauthorized)
			return
		}

		var userID int64
		if raw := r.Header.Get(HeaderUser); raw != "" {
			userID, err = strconv.ParseInt(raw, 10, 64)
			if err != nil {
				http.Error(w, "Invalid "+HeaderUser, http.StatusUnauthorized)
				return
			}
		}

		ctx := WithScope(r.Context(), service.Scope{TenantID: tenantID, UserID: userID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithScope(ctx context.Context, scope service.Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

func ScopeFrom(ctx context.Context) (service.Scope, bool) {
	scope, ok := ctx.Value(scopeKey{}).(service.Scope)
	return scope, ok
}
