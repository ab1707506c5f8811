package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/envelope"
)

// PayloadKind tells which success shape the backend used.
type PayloadKind int

const (
	// PayloadWrapped means Raw is the envelope's data field.
	PayloadWrapped PayloadKind = iota
	// PayloadBare means the envelope had no data and Raw is the whole body.
	PayloadBare
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadWrapped:
		return "wrapped"
	case PayloadBare:
		return "bare"
	default:
		return "unknown"
	}
}

// Payload is the normalized body of a 2xx response.
type Payload struct {
	Kind PayloadKind
	Raw  json.RawMessage
}

// normalize returns data unchanged when present, otherwise the full body.
// A data key holding JSON null counts as absent. Only the data key is
// inspected, so any valid JSON without one is a bare payload whatever the
// types of its other fields.
func normalize(raw []byte) (Payload, error) {
	if !json.Valid(raw) {
		return Payload{}, dErrors.New(dErrors.CodeAPIFailure, msgInvalidJSON)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil {
		if env := (envelope.Envelope{Data: fields["data"]}); env.HasData() {
			return Payload{Kind: PayloadWrapped, Raw: env.Data}, nil
		}
	}
	return Payload{Kind: PayloadBare, Raw: raw}, nil
}

// Decode unmarshals the payload into T.
func Decode[T any](p Payload) (T, error) {
	var out T
	if err := json.Unmarshal(p.Raw, &out); err != nil {
		return out, dErrors.Wrap(err, dErrors.CodeAPIFailure, msgInvalidJSON)
	}
	return out, nil
}

func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	p, err := c.Do(ctx, method, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](p)
}

func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	return call[T](ctx, c, http.MethodGet, path, nil)
}

func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return call[T](ctx, c, http.MethodPost, path, body)
}

func Put[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return call[T](ctx, c, http.MethodPut, path, body)
}

func Delete[T any](ctx context.Context, c *Client, path string) (T, error) {
	return call[T](ctx, c, http.MethodDelete, path, nil)
}
