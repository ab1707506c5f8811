package idtoken

import (
	"context"
	"errors"
	"net/http"

	dErrors "gatehouse/pkg/domain-errors"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	firebaseIssuerPrefix = "https://securetoken.google.com/"
	// FirebaseKeysURL publishes the keys Firebase signs ID tokens with.
	FirebaseKeysURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

// FirebaseVerifier checks Firebase ID tokens for one project.
type FirebaseVerifier struct {
	verifier *oidc.IDTokenVerifier
}

type FirebaseOption func(*firebaseOptions)

type firebaseOptions struct {
	keySet     oidc.KeySet
	httpClient *http.Client
}

// WithKeySet replaces the remote key set, e.g. with an oidc.StaticKeySet.
func WithKeySet(ks oidc.KeySet) FirebaseOption {
	return func(o *firebaseOptions) {
		o.keySet = ks
	}
}

func WithKeysHTTPClient(hc *http.Client) FirebaseOption {
	return func(o *firebaseOptions) {
		o.httpClient = hc
	}
}

// NewFirebaseVerifier builds a verifier for projectID. Keys are fetched
// lazily and cached by go-oidc.
func NewFirebaseVerifier(ctx context.Context, projectID string, opts ...FirebaseOption) *FirebaseVerifier {
	o := firebaseOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.keySet == nil {
		if o.httpClient != nil {
			ctx = oidc.ClientContext(ctx, o.httpClient)
		}
		o.keySet = oidc.NewRemoteKeySet(ctx, FirebaseKeysURL)
	}
	return &FirebaseVerifier{
		verifier: oidc.NewVerifier(firebaseIssuerPrefix+projectID, o.keySet, &oidc.Config{ClientID: projectID}),
	}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	token, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		var expired *oidc.TokenExpiredError
		if errors.As(err, &expired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, msgExpired)
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalid)
	}

	var claims Claims
	if err := token.Claims(&claims); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalid)
	}
	if claims.UID() == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalid)
	}
	return &claims, nil
}
