package middleware

import (
	"net/http"

	"hotelbook/pkg/errors"
	httputil "hotelbook/pkg/http"
)

// MaxRequestSize caps the request body at limit bytes. A declared length over
// the cap is rejected up front; an undeclared one fails while decoding.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > limit {
				httputil.WriteError(w, errors.New(errors.CodeBadRequest, "Request body too large", http.StatusRequestEntityTooLarge))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
