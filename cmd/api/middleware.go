package main

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/auth"
)

const cartSessionHeader = "X-Cart-Session"

type cartSessionKey string

const cartSessionCtx cartSessionKey = "cart_session"

func (app *application) BasicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Basic" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			decoded, err := base64.StdEncoding.DecodeString(parts[1])
			if err != nil {
				app.unauthorizedBasicErrorResponse(w, r, err)
				return
			}

			username := app.config.auth.basic.user
			hash := app.config.auth.basic.passHash
			if username == "" || hash == "" {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("basic auth is not configured"))
				return
			}

			creds := strings.SplitN(string(decoded), ":", 2)
			if len(creds) != 2 || subtle.ConstantTimeCompare([]byte(creds[0]), []byte(username)) != 1 {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds[1])); err != nil {
				app.unauthorizedBasicErrorResponse(w, r, fmt.Errorf("invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CartSessionMiddleware resolves which cart the request acts on: the sub of
// a bearer token, else the X-Cart-Session header, else a freshly minted
// guest id. The resolved id is echoed back in X-Cart-Session.
func (app *application) CartSessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionID string

		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				app.unauthorizedErrorResponse(w, r, fmt.Errorf("authorization header is malformed"))
				return
			}

			token, err := app.authenticator.ValidateToken(parts[1])
			if err != nil {
				app.unauthorizedErrorResponse(w, r, err)
				return
			}
			sessionID, err = auth.Subject(token)
			if err != nil {
				app.unauthorizedErrorResponse(w, r, err)
				return
			}
		} else if header := r.Header.Get(cartSessionHeader); header != "" {
			id, err := uuid.Parse(header)
			if err != nil {
				app.badRequestResponse(w, r, fmt.Errorf("invalid %s header", cartSessionHeader))
				return
			}
			sessionID = id.String()
		} else {
			sessionID = uuid.NewString()
		}

		w.Header().Set(cartSessionHeader, sessionID)

		ctx := context.WithValue(r.Context(), cartSessionCtx, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getCartSessionFromContext(r *http.Request) string {
	id, _ := r.Context().Value(cartSessionCtx).(string)
	return id
}

func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled && app.rateLimiter != nil {
			ip := r.RemoteAddr
			if host, _, err := net.SplitHostPort(ip); err == nil {
				ip = host
			}
			if allow, retryAfter := app.rateLimiter.Allow(ip); !allow {
				app.rateLimitExceededResponse(w, r, retryAfter)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
