package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// HeaderVersion selects the header encoding in use. The set of valid
// versions is closed; DecodeHeader rejects anything else.
type HeaderVersion uint8

// HeaderVersionV1 is the only header version currently defined.
const HeaderVersionV1 HeaderVersion = 1

// HeaderV1 carries routing and framing metadata alongside a Message's
// payload. It is covered by the signature together with the payload bytes.
type HeaderV1 struct {
	UUID             uuid.UUID
	MessageLength    uint32
	SenderID         string
	TrackerID        string
	VerificationData string
	Compression      CompressionCode
}

func (h *HeaderV1) encode() []byte {
	buf := new(bytes.Buffer)
	buf.Write(h.UUID[:])
	writeU32(buf, h.MessageLength)
	writeLPString(buf, h.SenderID)
	writeLPString(buf, h.TrackerID)
	writeLPString(buf, h.VerificationData)
	writeU32(buf, uint32(h.Compression))
	return buf.Bytes()
}

func decodeHeaderV1(b []byte) (*HeaderV1, error) {
	r := bytes.NewReader(b)
	h := &HeaderV1{}
	if _, err := io.ReadFull(r, h.UUID[:]); err != nil {
		return nil, fmt.Errorf("%w: read header uuid: %v", ErrHeaderInvalid, err)
	}
	msgLen, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read message length: %v", ErrHeaderInvalid, err)
	}
	h.MessageLength = msgLen
	if h.SenderID, err = readLPString(r); err != nil {
		return nil, fmt.Errorf("%w: read sender id: %v", ErrHeaderInvalid, err)
	}
	if h.TrackerID, err = readLPString(r); err != nil {
		return nil, fmt.Errorf("%w: read tracker id: %v", ErrHeaderInvalid, err)
	}
	if h.VerificationData, err = readLPString(r); err != nil {
		return nil, fmt.Errorf("%w: read verification data: %v", ErrHeaderInvalid, err)
	}
	compression, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read compression code: %v", ErrHeaderInvalid, err)
	}
	h.Compression = CompressionCode(compression)
	if h.Compression > maxCompressionCode {
		return nil, fmt.Errorf("%w: unknown compression code %d", ErrHeaderInvalid, h.Compression)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after header", ErrHeaderInvalid, r.Len())
	}
	return h, nil
}

// headerV1JSON is a fixed-field-order projection of HeaderV1 used both for
// the host-facing JSON the bridge exchanges and for RequestMetadata handed
// to inbound handlers.
type headerV1JSON struct {
	Version          HeaderVersion   `json:"version"`
	UUID             string          `json:"uuid"`
	MessageLength    uint32          `json:"message_length"`
	SenderID         string          `json:"sender_id"`
	TrackerID        string          `json:"tracker_id"`
	VerificationData string          `json:"verification_data"`
	Compression      CompressionCode `json:"compression"`
}

// JSON renders h as the stable-field-order projection used across the host
// boundary.
func (h *HeaderV1) JSON() ([]byte, error) {
	return json.Marshal(headerV1JSON{
		Version:          HeaderVersionV1,
		UUID:             h.UUID.String(),
		MessageLength:    h.MessageLength,
		SenderID:         h.SenderID,
		TrackerID:        h.TrackerID,
		VerificationData: h.VerificationData,
		Compression:      h.Compression,
	})
}

// headerV1FromJSON parses a host-supplied header description. UUID and
// MessageLength are optional: a missing UUID is generated, and
// MessageLength is always recomputed by the sender from the compressed
// payload.
func headerV1FromJSON(js string) (*HeaderV1, error) {
	var in struct {
		UUID             string          `json:"uuid"`
		SenderID         string          `json:"sender_id"`
		TrackerID        string          `json:"tracker_id"`
		VerificationData string          `json:"verification_data"`
		Compression      CompressionCode `json:"compression"`
	}
	if err := json.Unmarshal([]byte(js), &in); err != nil {
		return nil, fmt.Errorf("%w: parse header json: %v", ErrHeaderInvalid, err)
	}
	id := uuid.New()
	if in.UUID != "" {
		parsed, err := uuid.Parse(in.UUID)
		if err != nil {
			return nil, fmt.Errorf("%w: parse header uuid: %v", ErrHeaderInvalid, err)
		}
		id = parsed
	}
	if in.Compression > maxCompressionCode {
		return nil, fmt.Errorf("%w: unknown compression code %d", ErrHeaderInvalid, in.Compression)
	}
	return &HeaderV1{
		UUID:             id,
		SenderID:         in.SenderID,
		TrackerID:        in.TrackerID,
		VerificationData: in.VerificationData,
		Compression:      in.Compression,
	}, nil
}

// EncodeHeader dispatches to the wire encoding for version. Adding a new
// header version means adding a case here and to DecodeHeader; the set of
// versions understood by a build is always closed.
func EncodeHeader(version HeaderVersion, h any) ([]byte, error) {
	switch version {
	case HeaderVersionV1:
		hv1, ok := h.(*HeaderV1)
		if !ok {
			return nil, fmt.Errorf("%w: header value does not match version %d", ErrHeaderInvalid, version)
		}
		return hv1.encode(), nil
	default:
		return nil, fmt.Errorf("%w: unknown header version %d", ErrHeaderInvalid, version)
	}
}

// DecodeHeader parses raw header bytes according to version.
func DecodeHeader(version HeaderVersion, b []byte) (*HeaderV1, error) {
	switch version {
	case HeaderVersionV1:
		return decodeHeaderV1(b)
	default:
		return nil, fmt.Errorf("%w: unknown header version %d", ErrHeaderInvalid, version)
	}
}
