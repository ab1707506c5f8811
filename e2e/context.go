package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext holds the state of one scenario against a running backend.
type TestContext struct {
	BaseURL    string
	SigningKey string
	Issuer     string
	Audience   string

	client      *http.Client
	bearer      string
	lastStatus  int
	lastHeaders http.Header
	lastBody    map[string]any
}

// NewTestContext returns a context pointed at baseURL.
func NewTestContext(baseURL, signingKey, issuer, audience string) *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		SigningKey: signingKey,
		Issuer:     issuer,
		Audience:   audience,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.bearer = ""
	tc.lastStatus = 0
	tc.lastHeaders = nil
	tc.lastBody = nil
}

func (tc *TestContext) do(method, path string, body io.Reader, headers map[string]string) error {
	req, err := http.NewRequest(method, tc.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tc.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+tc.bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastStatus = resp.StatusCode
	tc.lastHeaders = resp.Header
	tc.lastBody = nil
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &tc.lastBody); err != nil {
			return fmt.Errorf("response is not JSON: %w", err)
		}
	}
	return nil
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) POST(path string, body any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, bytes.NewReader(encoded), nil)
}

func (tc *TestContext) POSTRaw(path, body string) error {
	return tc.do(http.MethodPost, path, strings.NewReader(body), nil)
}

func (tc *TestContext) SetBearer(token string) { tc.bearer = token }

func (tc *TestContext) LastStatus() int { return tc.lastStatus }

func (tc *TestContext) LastHeader(name string) string { return tc.lastHeaders.Get(name) }

// GetResponseField reads a dotted path such as "data.user.uid" from the last
// response body.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	var cur any = tc.lastBody
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		if cur, ok = m[part]; !ok {
			return nil, fmt.Errorf("field %q not found in response", field)
		}
	}
	return cur, nil
}

func (tc *TestContext) GetSigningKey() string { return tc.SigningKey }
func (tc *TestContext) GetIssuer() string     { return tc.Issuer }
func (tc *TestContext) GetAudience() string   { return tc.Audience }
