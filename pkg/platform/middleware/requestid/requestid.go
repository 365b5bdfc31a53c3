// Package requestid assigns each request an id for log and audit
// correlation. An id supplied by the caller on X-Request-Id is trusted;
// otherwise one is generated.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"courtbridge/pkg/requestcontext"
)

// Header carries the request id on both requests and responses.
const Header = "X-Request-Id"

// Middleware stamps the request id into the context and echoes it on the
// response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
