package core

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
)

// SignatureRecord carries the signer's public key and the signature produced
// over a Message's signable byte-string.
type SignatureRecord struct {
	Owner     []byte
	Signature []byte
}

type signatureRecordJSON struct {
	Owner     string `json:"owner"`
	Signature string `json:"signature"`
}

// JSON renders s as hex-encoded owner/signature strings.
func (s SignatureRecord) JSON() ([]byte, error) {
	return json.Marshal(signatureRecordJSON{
		Owner:     hex.EncodeToString(s.Owner),
		Signature: hex.EncodeToString(s.Signature),
	})
}

// Message is the enveloped wire representation of a signed, headered send:
// a versioned header, its payload (already compressed), and the signature
// record covering both.
type Message struct {
	HeaderVersion uint8
	HeaderBytes   []byte
	PayloadBytes  []byte
	Sig           SignatureRecord
}

// signablePortion reconstructs the exact byte-string that was hashed and
// signed: header_version, header_len, header_bytes, payload_len,
// payload_bytes, in that order. Owner and signature are excluded.
func signablePortion(version uint8, header, payload []byte) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(version)
	writeU32(buf, uint32(len(header)))
	buf.Write(header)
	writeU32(buf, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

// EncodeMessage serializes m as: header_version(u8) || header_len(u32) ||
// header_bytes || payload_len(u32) || payload_bytes || owner_len(u32) ||
// owner_bytes || sig_len(u32) || sig_bytes.
func EncodeMessage(m *Message) []byte {
	buf := new(bytes.Buffer)
	buf.Write(signablePortion(m.HeaderVersion, m.HeaderBytes, m.PayloadBytes))
	writeLPBytes(buf, m.Sig.Owner)
	writeLPBytes(buf, m.Sig.Signature)
	return buf.Bytes()
}

// DecodeMessage parses the wire layout EncodeMessage produces. It does not
// verify the signature or validate the header; callers do that once the
// message's fields are in hand.
func DecodeMessage(b []byte) (*Message, error) {
	r := bytes.NewReader(b)
	m := &Message{}

	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: read header version: %v", ErrFrameMalformed, err)
	}
	m.HeaderVersion = version

	headerLen, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read header length: %v", ErrFrameMalformed, err)
	}
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: read header bytes: %v", ErrFrameMalformed, err)
	}
	m.HeaderBytes = header

	payloadLen, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read payload length: %v", ErrFrameMalformed, err)
	}
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: read payload bytes: %v", ErrFrameMalformed, err)
	}
	m.PayloadBytes = payload

	owner, err := readLPBytes(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read owner: %v", ErrFrameMalformed, err)
	}
	m.Sig.Owner = owner

	sig, err := readLPBytes(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read signature: %v", ErrFrameMalformed, err)
	}
	m.Sig.Signature = sig

	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after message", ErrFrameMalformed, r.Len())
	}
	return m, nil
}
