package utils

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidSignature = errors.New("invalid signature")

// RestoreSignerAddress recovers the address that signed data with personal_sign.
// Both 0/1 and 27/28 recovery ids are accepted, sig is left untouched. Signatures
// with s in the upper half of the curve order are rejected, so every signer has
// exactly one valid signature per payload.
func RestoreSignerAddress(data, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature length %d: %w", len(sig), ErrInvalidSignature)
	}
	sig = common.CopyBytes(sig)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	r, s := new(big.Int).SetBytes(sig[:32]), new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[crypto.RecoveryIDOffset], r, s, true) {
		return common.Address{}, fmt.Errorf("non-canonical signature values: %w", ErrInvalidSignature)
	}
	pk, err := crypto.SigToPub(accounts.TextHash(data), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("can't recover ecdsa signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pk), nil
}

// SignData produces a personal_sign signature with a 27/28 recovery id.
func SignData(data []byte, key []byte) ([]byte, error) {
	pk, err := crypto.ToECDSA(key)
	if err != nil {
		return nil, fmt.Errorf("can't parse private key: %w", err)
	}
	sig, err := crypto.Sign(accounts.TextHash(data), pk)
	if err != nil {
		return nil, fmt.Errorf("can't sign data: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}
