package middleware

import (
	"net/http"
	"strings"

	"perfcycle/internal/transport/http/api"
)

// BodyLimit caps request bodies on writes and rejects non-JSON payloads,
// which every mutating endpoint expects.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasBody(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > 0 && !isJSON(r.Header.Get("Content-Type")) {
				api.Fail(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "request body must be application/json", GetRequestID(r.Context()))
				return
			}
			if maxBytes > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}
