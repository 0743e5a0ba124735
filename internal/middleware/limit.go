package middleware

import "net/http"

// BodyLimit caps request bodies. Reads past the cap fail with
// *http.MaxBytesError, which handlers map to 413.
type BodyLimit struct {
	maxBytes int64
}

func NewBodyLimit(maxBytes int64) *BodyLimit {
	return &BodyLimit{maxBytes: maxBytes}
}

func (bl *BodyLimit) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > bl.maxBytes {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			w.Write([]byte(`{"error":"File too large"}` + "\n"))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, bl.maxBytes)
		next.ServeHTTP(w, r)
	})
}
