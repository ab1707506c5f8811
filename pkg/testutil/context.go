package testutil

import (
	"net/http"

	authmw "gatehouse/pkg/platform/middleware/auth"
)

// WithIdentity adds a verified caller to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithIdentity(req *http.Request, uid, email string) *http.Request {
	return req.WithContext(authmw.WithIdentity(req.Context(), &authmw.Identity{UID: uid, Email: email}))
}
