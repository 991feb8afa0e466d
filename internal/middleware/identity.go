package middleware

import (
	"net/http"
	"strings"

	"github.com/stridelab/pacequest/internal/ctxkeys"
)

// userIDHeader carries the caller's identity. Authentication itself lives
// in an upstream gateway; this middleware is the seam where a verified
// principal enters the request context.
const userIDHeader = "X-User-ID"

// RequireUser extracts the user ID header into the request context and
// rejects requests without one.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(userIDHeader))
		if userID == "" {
			http.Error(w, "missing "+userIDHeader+" header", http.StatusUnauthorized)
			return
		}

		ctx := ctxkeys.WithUserID(r.Context(), userID)
		next(w, r.WithContext(ctx))
	}
}
