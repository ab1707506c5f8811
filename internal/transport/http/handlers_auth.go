package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"gatehouse/pkg/models"
	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/platform/httputil"
	authmw "gatehouse/pkg/platform/middleware/auth"
	"gatehouse/pkg/requestcontext"
)

const (
	maxBodyBytes  = 1 << 20
	anonymousName = "Anonymous"
)

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (*authmw.Identity, bool) {
	id, ok := authmw.GetIdentity(r.Context())
	if !ok {
		httputil.WriteDomainError(w, r, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
	}
	return id, ok
}

// HandleHello handles GET /auth/hello.
func (h *Handler) HandleHello(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	name := id.Name
	if name == "" {
		name = anonymousName
	}
	httputil.WriteSuccess(w, r, http.StatusOK, models.Hello{
		Message:  "Hello from authenticated gatehouse backend!",
		User:     models.HelloUser{UID: id.UID, Email: id.Email, Name: name},
		AuthTime: id.AuthTime,
	}, "Authentication successful")
}

// HandleProtected handles POST /auth/protected. An empty or null body echoes
// back as an empty object.
func (h *Handler) HandleProtected(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	data, err := decodeObject(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid protected payload",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.BadRequest(w, r)
		return
	}

	httputil.WriteSuccess(w, r, http.StatusOK, models.Protected{
		Message:           "This is a protected endpoint",
		ReceivedData:      data,
		AuthenticatedUser: id.Email,
		UserID:            id.UID,
	}, "Protected endpoint accessed successfully")
}

// HandleProfile handles GET /user/profile.
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	firebase := id.Firebase
	if firebase == nil {
		firebase = map[string]any{}
	}
	httputil.WriteSuccess(w, r, http.StatusOK, models.Profile{
		UID:           id.UID,
		Email:         id.Email,
		EmailVerified: id.EmailVerified,
		Name:          optional(id.Name),
		Picture:       optional(id.Picture),
		AuthTime:      id.AuthTime,
		Firebase:      firebase,
	}, "Profile retrieved successfully")
}

func decodeObject(body io.Reader) (map[string]any, error) {
	var data map[string]any
	if err := json.NewDecoder(body).Decode(&data); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
