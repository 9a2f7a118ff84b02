// Package secret turns a recovery phrase into signing material.
package secret

import (
	"errors"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// ErrInvalidMnemonic is returned for phrases that fail the BIP-39 checksum.
var ErrInvalidMnemonic = errors.New("invalid mnemonic phrase")

// Deriver derives secret material from a mnemonic phrase. Callers own the
// returned slice and should clear it after use.
type Deriver interface {
	DeriveSecret(mnemonic string) ([]byte, error)
}

// Bip39 derives a 32-byte private key from the BIP-39 seed of the phrase.
type Bip39 struct {
	Passphrase string
}

func (b Bip39) DeriveSecret(mnemonic string) ([]byte, error) {
	phrase := strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(phrase) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(phrase, b.Passphrase)
	defer clear(seed)

	out := make([]byte, 32)
	copy(out, seed[:32])
	return out, nil
}

// NewMnemonic returns a fresh 24-word phrase.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	defer clear(entropy)
	return bip39.NewMnemonic(entropy)
}
