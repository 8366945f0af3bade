package core

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestEncodeDecodeMessageRoundTrip(t *testing.T) {
	header := &HeaderV1{
		UUID:             uuid.New(),
		MessageLength:    5,
		SenderID:         "node-a",
		TrackerID:        "trk-1",
		VerificationData: "v1",
		Compression:      CompressionGzip,
	}
	headerBytes := header.encode()

	m := &Message{
		HeaderVersion: uint8(HeaderVersionV1),
		HeaderBytes:   headerBytes,
		PayloadBytes:  []byte("hello"),
		Sig: SignatureRecord{
			Owner:     []byte("owner-bytes"),
			Signature: []byte("signature-bytes"),
		},
	}

	encoded := EncodeMessage(m)
	decoded, err := DecodeMessage(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.HeaderVersion != m.HeaderVersion {
		t.Fatalf("header version mismatch: %d != %d", decoded.HeaderVersion, m.HeaderVersion)
	}
	if !bytes.Equal(decoded.HeaderBytes, m.HeaderBytes) {
		t.Fatal("header bytes mismatch")
	}
	if !bytes.Equal(decoded.PayloadBytes, m.PayloadBytes) {
		t.Fatal("payload bytes mismatch")
	}
	if !bytes.Equal(decoded.Sig.Owner, m.Sig.Owner) {
		t.Fatal("owner mismatch")
	}
	if !bytes.Equal(decoded.Sig.Signature, m.Sig.Signature) {
		t.Fatal("signature mismatch")
	}

	decodedHeader, err := decodeHeaderV1(decoded.HeaderBytes)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if decodedHeader.SenderID != header.SenderID || decodedHeader.TrackerID != header.TrackerID {
		t.Fatal("header field mismatch after round trip")
	}
	if decodedHeader.Compression != header.Compression {
		t.Fatal("compression code mismatch after round trip")
	}
}

func TestDecodeMessageRejectsTrailingBytes(t *testing.T) {
	header := &HeaderV1{UUID: uuid.New()}
	msg := &Message{
		HeaderVersion: uint8(HeaderVersionV1),
		HeaderBytes:   header.encode(),
		PayloadBytes:  []byte("x"),
		Sig:           SignatureRecord{Owner: []byte("o"), Signature: []byte("s")},
	}
	encoded := append(EncodeMessage(msg), 0xde, 0xad)
	if _, err := DecodeMessage(encoded); err == nil {
		t.Fatal("expected error for trailing bytes")
	}
}

func TestDecodeMessageRejectsTruncatedFrame(t *testing.T) {
	header := &HeaderV1{UUID: uuid.New()}
	msg := &Message{
		HeaderVersion: uint8(HeaderVersionV1),
		HeaderBytes:   header.encode(),
		PayloadBytes:  []byte("some payload"),
		Sig:           SignatureRecord{Owner: []byte("o"), Signature: []byte("s")},
	}
	encoded := EncodeMessage(msg)
	truncated := encoded[:len(encoded)-3]
	if _, err := DecodeMessage(truncated); err == nil {
		t.Fatal("expected error for truncated message")
	}
}

func TestSignablePortionExcludesOwnerAndSignature(t *testing.T) {
	header := []byte("header-bytes")
	payload := []byte("payload-bytes")
	a := signablePortion(1, header, payload)

	msg := &Message{
		HeaderVersion: 1,
		HeaderBytes:   header,
		PayloadBytes:  payload,
		Sig:           SignatureRecord{Owner: []byte("owner"), Signature: []byte("sig")},
	}
	full := EncodeMessage(msg)
	if !bytes.Equal(full[:len(a)], a) {
		t.Fatal("expected signable portion to be a prefix of the full encoding")
	}
	if len(full) == len(a) {
		t.Fatal("expected owner/signature to extend the encoding beyond the signable portion")
	}
}
