package middleware

import (
	"net/http"
)

// DefaultMaxBodySize bounds request bodies. Gateway webhook payloads carry
// message text plus a media URL, never the media bytes themselves, so 1MB
// leaves generous headroom.
const DefaultMaxBodySize int64 = 1 << 20

// BodyLimitMiddleware rejects oversized requests up front and caps reads for
// the rest, so a misbehaving gateway cannot stream an unbounded body into the
// webhook decoder.
type BodyLimitMiddleware struct {
	maxSize int64
}

func NewBodyLimitMiddleware(maxSize int64) *BodyLimitMiddleware {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	return &BodyLimitMiddleware{maxSize: maxSize}
}

func (m *BodyLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && r.ContentLength > m.maxSize {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": "Request body too large",
			})
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, m.maxSize)
		next.ServeHTTP(w, r)
	})
}
