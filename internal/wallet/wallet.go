// Package wallet provides the wallet allocator: a collision-retrying
// wrapper around a Generator, plus the one concrete generator this
// module ships so the allocator is actually exercised.
package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"account-settlement-core/internal/models"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"
)

// Generator mints a fresh {address, passphrase, privateKey, publicKey}
// tuple. A real deployment would likely delegate this to a dedicated
// signing/HSM service; BTCGenerator below is this module's own stand-in,
// built on the secp256k1/BIP-39 stack.
type Generator interface {
	Generate(ctx context.Context) (models.WalletInfo, error)
}

// BTCGenerator derives a secp256k1 keypair from a freshly minted BIP-39
// mnemonic and encodes the corresponding P2PKH address over mainnet
// parameters.
type BTCGenerator struct {
	Params *chaincfg.Params
}

// NewBTCGenerator returns a Generator targeting Bitcoin mainnet.
func NewBTCGenerator() *BTCGenerator {
	return &BTCGenerator{Params: &chaincfg.MainNetParams}
}

func (g *BTCGenerator) Generate(_ context.Context) (models.WalletInfo, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return models.WalletInfo{}, fmt.Errorf("wallet: generating entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return models.WalletInfo{}, fmt.Errorf("wallet: building mnemonic: %w", err)
	}

	seed := bip39.NewSeed(mnemonic, "")

	// Derive an independent scalar from the seed rather than using the seed
	// bytes directly as the private key -- HKDF keeps the mnemonic and the
	// signing key cryptographically separated.
	scalar, err := deriveScalar(seed)
	if err != nil {
		return models.WalletInfo{}, fmt.Errorf("wallet: deriving key: %w", err)
	}

	privKey, pubKey := btcec.PrivKeyFromBytes(scalar)

	pubKeyHash := btcutil.Hash160(pubKey.SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(pubKeyHash, g.Params)
	if err != nil {
		return models.WalletInfo{}, fmt.Errorf("wallet: encoding address: %w", err)
	}

	return models.WalletInfo{
		Address:    addr.EncodeAddress(),
		Passphrase: mnemonic,
		PrivateKey: hex.EncodeToString(privKey.Serialize()),
		PublicKey:  hex.EncodeToString(pubKey.SerializeCompressed()),
	}, nil
}

// deriveScalar reduces a BIP-39 seed to a 32-byte secp256k1 private key
// scalar via HKDF-SHA256.
func deriveScalar(seed []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, seed, nil, []byte("account-settlement-core/deposit-wallet"))
	scalar := make([]byte, 32)
	if _, err := io.ReadFull(reader, scalar); err != nil {
		return nil, err
	}
	return scalar, nil
}
