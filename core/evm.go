package core

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/core/types"
)

// SenderAddressResult is the outcome of recovering a transaction's signer.
// IsValid is false whenever the raw bytes could not be parsed as a
// transaction or the signature could not be recovered; Address is then
// meaningless.
type SenderAddressResult struct {
	Address string `json:"address"`
	IsValid bool   `json:"isValid"`
}

// GetSenderAddress decodes a raw (optionally 0x-prefixed) RLP-encoded
// transaction and recovers its sender address via its ECDSA signature. It is
// a pure function: it does not touch the network or any chain state, and is
// unrelated to this package's peer transport.
func GetSenderAddress(rawTxHex string) (SenderAddressResult, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(rawTxHex, "0x"))
	if err != nil {
		return SenderAddressResult{}, fmt.Errorf("netmesh: decode raw transaction: %w", err)
	}

	var tx types.Transaction
	if err := tx.UnmarshalBinary(raw); err != nil {
		return SenderAddressResult{IsValid: false}, nil
	}

	signer := types.LatestSignerForChainID(tx.ChainId())
	addr, err := types.Sender(signer, &tx)
	if err != nil {
		return SenderAddressResult{IsValid: false}, nil
	}
	return SenderAddressResult{Address: addr.Hex(), IsValid: true}, nil
}
