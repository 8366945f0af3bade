package core

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// EnvelopeMarker is the first body byte that distinguishes an enveloped
// (signed, headered) Message from a legacy opaque payload.
const EnvelopeMarker byte = 0x01

// writeFrame writes a length-prefixed frame: a little-endian u32 byte count
// followed by body. A zero-length body is legal.
func writeFrame(w io.Writer, body []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	_, err := w.Write(body)
	return err
}

// readFrame reads one length-prefixed frame from r. A maxLen of zero means no
// upper bound is enforced; otherwise frames declaring a larger length are
// rejected before the body is allocated.
func readFrame(r io.Reader, maxLen uint32) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if maxLen > 0 && n > maxLen {
		return nil, fmt.Errorf("%w: frame length %d exceeds max %d", ErrFrameTooLarge, n, maxLen)
	}
	if n == 0 {
		return []byte{}, nil
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func writeLPBytes(buf *bytes.Buffer, b []byte) {
	writeU32(buf, uint32(len(b)))
	buf.Write(b)
}

func readLPBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func writeLPString(buf *bytes.Buffer, s string) {
	writeLPBytes(buf, []byte(s))
}

func readLPString(r *bytes.Reader) (string, error) {
	b, err := readLPBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
