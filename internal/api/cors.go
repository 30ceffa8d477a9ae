package api

import "net/http"

// exposedHeaders lists the custom headers the frontend may read.
const exposedHeaders = "X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After, X-Version, X-Request-ID"

// setCORSHeaders writes the CORS response headers, echoing the request
// Origin when present so credentials-bearing frontends work behind CDNs.
func setCORSHeaders(w http.ResponseWriter, origin string) {
	if origin == "" {
		origin = "*"
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Access-Control-Max-Age", "86400")
	h.Set("Access-Control-Expose-Headers", exposedHeaders)
	if origin != "*" {
		// Keep CDN caches from serving one origin's variant to another.
		h.Add("Vary", "Origin")
	}
}

// CORSMiddleware applies CORS headers to every response and answers
// preflight requests with 204 before routing.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w, r.Header.Get("Origin"))
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
