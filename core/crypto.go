package core

import (
	"crypto/ed25519"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// KeyPair is an Ed25519 signing identity.
type KeyPair struct {
	Public ed25519.PublicKey
	Secret ed25519.PrivateKey
}

// KeyPairFromSecret derives a KeyPair from a hex-encoded signing secret key.
// It accepts either a bare 32-byte seed or the 64-byte NaCl secret key
// format (seed || public key) that the original node's keypairs are
// documented in; in the latter case only the seed half is used to derive
// the key pair, and the embedded public key is not cross-checked.
func KeyPairFromSecret(skHex string) (*KeyPair, error) {
	sk, err := hex.DecodeString(skHex)
	if err != nil {
		return nil, fmt.Errorf("netmesh: decode signing secret key: %w", err)
	}
	var seed []byte
	switch len(sk) {
	case ed25519.SeedSize:
		seed = sk
	case ed25519.PrivateKeySize:
		seed = sk[:ed25519.SeedSize]
	default:
		return nil, fmt.Errorf("netmesh: signing secret key must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(sk))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &KeyPair{Public: priv.Public().(ed25519.PublicKey), Secret: priv}, nil
}

// blake2bKeySize is the key length used throughout the network: large
// enough for domain separation, within BLAKE2b's 64-byte key ceiling.
const blake2bKeySize = 32

// CryptoHandle holds the process-wide keyed-hash key used for domain
// separation between deployments. It is created once via InitCrypto.
type CryptoHandle struct {
	key []byte
}

var (
	cryptoMu     sync.Mutex
	cryptoHandle *CryptoHandle
)

// InitCrypto installs the process-wide CryptoHandle. It may be called only
// once per process; subsequent calls return ErrCryptoAlreadyInit.
func InitCrypto(hashKeyHex string) (*CryptoHandle, error) {
	cryptoMu.Lock()
	defer cryptoMu.Unlock()
	if cryptoHandle != nil {
		return nil, ErrCryptoAlreadyInit
	}
	key, err := hex.DecodeString(hashKeyHex)
	if err != nil {
		return nil, fmt.Errorf("netmesh: decode hash key: %w", err)
	}
	if len(key) != blake2bKeySize {
		return nil, fmt.Errorf("netmesh: hash key must be %d bytes, got %d", blake2bKeySize, len(key))
	}
	h := &CryptoHandle{key: key}
	cryptoHandle = h
	return h, nil
}

// Crypto returns the process-wide CryptoHandle, or ErrCryptoNotInitialized
// if InitCrypto has not run yet.
func Crypto() (*CryptoHandle, error) {
	cryptoMu.Lock()
	defer cryptoMu.Unlock()
	if cryptoHandle == nil {
		return nil, ErrCryptoNotInitialized
	}
	return cryptoHandle, nil
}

// resetCryptoForTest clears the process-wide handle so tests can exercise
// InitCrypto's guard repeatedly within one test binary.
func resetCryptoForTest() {
	cryptoMu.Lock()
	cryptoHandle = nil
	cryptoMu.Unlock()
}

// Hash computes the keyed BLAKE2b-256 digest of b under c's key. This
// matches the original node's libsodium generichash call, which is keyed
// BLAKE2b, not BLAKE3.
func (c *CryptoHandle) Hash(b []byte) ([32]byte, error) {
	h, err := blake2b.New256(c.key)
	if err != nil {
		return [32]byte{}, fmt.Errorf("netmesh: init keyed hash: %w", err)
	}
	h.Write(b)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Sign produces a NaCl-style signature over msg: the Ed25519 signature
// followed by msg itself, so the pair can be verified without msg being
// supplied out of band. Message signing runs msg through Hash first; this
// function itself is agnostic to what msg contains.
func Sign(msg []byte, sk ed25519.PrivateKey) []byte {
	sig := ed25519.Sign(sk, msg)
	out := make([]byte, 0, len(sig)+len(msg))
	out = append(out, sig...)
	out = append(out, msg...)
	return out
}

// Verify recovers the message portion of sigWithMsg, checks the Ed25519
// signature against pub, and tests byte-equality of the recovered message
// against expected. Any failure returns false.
func Verify(expected []byte, sigWithMsg []byte, pub ed25519.PublicKey) bool {
	if len(sigWithMsg) < ed25519.SignatureSize || len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig := sigWithMsg[:ed25519.SignatureSize]
	msg := sigWithMsg[ed25519.SignatureSize:]
	if !ed25519.Verify(pub, msg, sig) {
		return false
	}
	return subtle.ConstantTimeCompare(msg, expected) == 1
}
