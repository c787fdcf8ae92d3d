// Package payload implements the request envelope the portal service expects:
// the JSON body is base64 encoded, reversed, salted and base64 encoded again,
// then sent as {"data": "<encoded>"}.
//
// This is obfuscation only. It offers no confidentiality.
package payload

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nimora/nimora/pkg/constants"
)

// ErrMalformedPayload is returned when an encoded payload cannot be unwrapped.
var ErrMalformedPayload = errors.New("malformed payload")

// Envelope is the wire form of an encoded request body.
type Envelope struct {
	Data string `json:"data"`
}

// Codec encodes and decodes envelopes for one salt.
type Codec struct {
	salt string
}

// NewCodec returns a codec using salt, or the default salt when empty.
func NewCodec(salt string) *Codec {
	if salt == "" {
		salt = constants.DefaultPayloadSalt
	}
	return &Codec{salt: salt}
}

// Encode marshals v and applies the two-pass encoding.
func (c *Codec) Encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}
	first := base64.StdEncoding.EncodeToString(raw)
	return base64.StdEncoding.EncodeToString([]byte(reverse(first) + c.salt)), nil
}

// Wrap encodes v into an Envelope.
func (c *Codec) Wrap(v any) (Envelope, error) {
	data, err := c.Encode(v)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Data: data}, nil
}

// Decode reverses Encode and unmarshals the JSON into v.
func (c *Codec) Decode(encoded string, v any) error {
	outer, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%w: outer layer: %v", ErrMalformedPayload, err)
	}
	salted := string(outer)
	if !strings.HasSuffix(salted, c.salt) {
		return fmt.Errorf("%w: salt mismatch", ErrMalformedPayload)
	}
	inner, err := base64.StdEncoding.DecodeString(reverse(strings.TrimSuffix(salted, c.salt)))
	if err != nil {
		return fmt.Errorf("%w: inner layer: %v", ErrMalformedPayload, err)
	}
	if err := json.Unmarshal(inner, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// reverse reverses a base64 string; the alphabet is ASCII so bytes suffice.
func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
