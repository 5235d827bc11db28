package middleware

import (
	"net/http"
	"strings"
)

// corsPolicy is the precomputed origin allowlist. A bare "*" entry
// switches the policy to echo any Origin back, which is what the
// embeddable chat widget needs when customer domains are unknown.
type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
}

func newCORSPolicy(allowedOrigins []string) corsPolicy {
	p := corsPolicy{origins: make(map[string]struct{})}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
		case "*":
			p.anyOrigin = true
		default:
			p.origins[origin] = struct{}{}
		}
	}
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// CORS applies the origin allowlist so the chat widget can run embedded
// on customer sites. Preflight requests are answered without reaching
// the handlers.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newCORSPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin != "" && policy.allows(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Session-ID")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				h.Set("Access-Control-Max-Age", "600")
			}

			if r.Method == http.MethodOptions && origin != "" && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
