package core

import "errors"

// Sentinel error kinds, per the error handling design: inbound errors never
// propagate to the host beyond absence of delivery; outbound errors surface
// through a send's completion callback as a human-readable string.
var (
	ErrInvalidAddress       = errors.New("netmesh: invalid address")
	ErrConnectionFailed     = errors.New("netmesh: connection failed")
	ErrSendFailed           = errors.New("netmesh: send failed")
	ErrFrameMalformed       = errors.New("netmesh: frame malformed")
	ErrSignatureInvalid     = errors.New("netmesh: signature invalid")
	ErrHeaderInvalid        = errors.New("netmesh: header invalid")
	ErrDecompressFailed     = errors.New("netmesh: decompress failed")
	ErrPayloadNotUTF8       = errors.New("netmesh: payload not utf-8")
	ErrFrameTooLarge        = errors.New("netmesh: frame exceeds maximum length")
	ErrCryptoAlreadyInit    = errors.New("netmesh: crypto handle already initialized")
	ErrCryptoNotInitialized = errors.New("netmesh: crypto handle not initialized")
)
