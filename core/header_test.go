package core

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestHeaderV1FromJSONGeneratesUUIDWhenAbsent(t *testing.T) {
	h, err := headerV1FromJSON(`{"sender_id":"a","compression":1}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.UUID == uuid.Nil {
		t.Fatal("expected a generated uuid")
	}
	if h.Compression != CompressionGzip {
		t.Fatalf("expected gzip compression code, got %d", h.Compression)
	}
}

func TestHeaderV1FromJSONRejectsUnknownCompression(t *testing.T) {
	if _, err := headerV1FromJSON(`{"compression":99}`); err == nil {
		t.Fatal("expected error for unknown compression code")
	}
}

func TestHeaderV1JSONFieldOrderIsStable(t *testing.T) {
	h := &HeaderV1{UUID: uuid.New(), SenderID: "s", TrackerID: "t"}
	a, err := h.JSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	b, err := h.JSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if string(a) != string(b) {
		t.Fatal("expected identical JSON across repeated calls")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(a, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"version", "uuid", "message_length", "sender_id", "tracker_id", "verification_data", "compression"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("expected key %q in header JSON", key)
		}
	}
}

func TestDecodeHeaderRejectsUnknownVersion(t *testing.T) {
	if _, err := DecodeHeader(HeaderVersion(99), nil); err == nil {
		t.Fatal("expected error for unknown header version")
	}
}

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := &HeaderV1{
		UUID:             uuid.New(),
		MessageLength:    42,
		SenderID:         "sender",
		TrackerID:        "tracker",
		VerificationData: "verify",
		Compression:      CompressionBrotli,
	}
	encoded, err := EncodeHeader(HeaderVersionV1, h)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeHeader(HeaderVersionV1, encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.UUID != h.UUID || decoded.SenderID != h.SenderID || decoded.Compression != h.Compression {
		t.Fatal("round trip lost fields")
	}
}
