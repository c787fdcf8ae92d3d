package payload

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

type credentials struct {
	RollNo   string `json:"rollno"`
	Password string `json:"password"`
}

func TestEncodeMatchesWireFormat(t *testing.T) {
	codec := NewCodec("")

	encoded, err := codec.Encode(credentials{RollNo: "22z201", Password: "secret"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	outer, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("outer layer is not base64: %v", err)
	}
	if !strings.HasSuffix(string(outer), "nimora_secure_payload_2025") {
		t.Fatalf("expected default salt suffix, got %q", outer)
	}

	reversed := strings.TrimSuffix(string(outer), "nimora_secure_payload_2025")
	first := []byte(reversed)
	for i, j := 0, len(first)-1; i < j; i, j = i+1, j-1 {
		first[i], first[j] = first[j], first[i]
	}
	inner, err := base64.StdEncoding.DecodeString(string(first))
	if err != nil {
		t.Fatalf("inner layer is not base64: %v", err)
	}
	if string(inner) != `{"rollno":"22z201","password":"secret"}` {
		t.Errorf("unexpected inner JSON %s", inner)
	}
}

func TestDecodeReversesEncode(t *testing.T) {
	codec := NewCodec("custom-salt")

	envelope, err := codec.Wrap(credentials{RollNo: "22z201", Password: "p@ss wörd"})
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}

	var decoded credentials
	if err := codec.Decode(envelope.Data, &decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if decoded.RollNo != "22z201" || decoded.Password != "p@ss wörd" {
		t.Errorf("unexpected decoded value %+v", decoded)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	codec := NewCodec("")
	other := NewCodec("another-salt")

	valid, err := other.Encode(credentials{RollNo: "x"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	tests := []struct {
		name  string
		input string
	}{
		{"Not base64", "%%%"},
		{"Wrong salt", valid},
		{"Salt only", base64.StdEncoding.EncodeToString([]byte("!!" + "nimora_secure_payload_2025"))},
		{"Inner not JSON", base64.StdEncoding.EncodeToString([]byte(reverse(base64.StdEncoding.EncodeToString([]byte("nope"))) + "nimora_secure_payload_2025"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out credentials
			err := codec.Decode(tt.input, &out)
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}
