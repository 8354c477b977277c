package middleware

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/eleitores/internal/core"
	"github.com/JonMunkholm/eleitores/internal/logging"
)

// OperatorHeader carries the id of the authenticated operator, set by the
// upstream auth layer. It is stamped on committed records as criadoPorId.
const OperatorHeader = "X-Operator-ID"

// maxOperatorIDLen bounds the header value kept in context.
const maxOperatorIDLen = 64

// Operator copies the X-Operator-ID header into the request context and
// into the request's log fields.
func Operator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(OperatorHeader))
		if id != "" && len(id) <= maxOperatorIDLen {
			ctx := core.ContextWithOperator(r.Context(), id)
			r = r.WithContext(logging.With(ctx, "operator_id", id))
		}
		next.ServeHTTP(w, r)
	})
}
