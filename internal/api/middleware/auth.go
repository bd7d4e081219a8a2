package middleware

import (
	"net/http"
	"strings"

	"stopguard/pkg/crypto"
)

// Auth - middleware авторизации API по bearer-токену.
//
// В переменной окружения API_TOKEN_HASH хранится bcrypt-хэш токена,
// сам токен нигде на сервере не лежит. Пустой хэш отключает
// авторизацию (локальная разработка).
//
// Использование:
//
//	api := router.PathPrefix("/api/v1").Subrouter()
//	api.Use(middleware.Auth(cfg.APITokenHash))
func Auth(tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// bcrypt сравнение constant-time, timing attack невозможен
			if !crypto.CheckPasswordMatch(token, tokenHash) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
