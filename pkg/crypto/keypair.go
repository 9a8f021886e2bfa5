package crypto

import (
	"golang.org/x/crypto/blake2b"

	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ferat8/sui/pkg/types"
)

// KeyPair is an ed25519 key pair of an account.
type KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// GenerateKeyPair creates a random key pair.
func GenerateKeyPair() (*KeyPair, error) {
	keyPair := ed25519.GenerateKeyPair()

	return &KeyPair{PublicKey: keyPair.PublicKey, PrivateKey: keyPair.PrivateKey}, nil
}

// KeyPairFromSeed derives a key pair from a 32 byte seed.
func KeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ierrors.Errorf("invalid seed length: %d, need %d", len(seed), ed25519.SeedSize)
	}

	privateKey := ed25519.PrivateKeyFromSeed(seed)

	return &KeyPair{PublicKey: privateKey.Public(), PrivateKey: privateKey}, nil
}

// Address returns the account address of the key pair.
func (k *KeyPair) Address() types.SuiAddress {
	return AddressFromPublicKey(types.SchemeED25519, k.PublicKey[:])
}

// Sign signs the transaction body and returns the submission form.
func (k *KeyPair) Sign(data *types.TransactionData) (*types.SignedTransaction, error) {
	txBytes, err := data.Bytes()
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to encode transaction")
	}

	signature := k.PrivateKey.Sign(txBytes)

	return &types.SignedTransaction{
		TxBytes:   txBytes,
		Scheme:    types.SchemeED25519,
		Signature: signature[:],
		PublicKey: k.PublicKey[:],
	}, nil
}

// AddressFromPublicKey hashes the scheme flag and the public key.
func AddressFromPublicKey(scheme types.SignatureScheme, publicKey []byte) types.SuiAddress {
	hash := blake2b.Sum256(append([]byte{byte(scheme)}, publicKey...))

	var address types.SuiAddress
	copy(address[:], hash[:types.AddressLength])

	return address
}

// VerifyTransaction checks the signature of a submitted transaction and that the key belongs to the sender.
func VerifyTransaction(tx *types.SignedTransaction, sender types.SuiAddress) error {
	if tx.Scheme != types.SchemeED25519 {
		return ierrors.Wrapf(types.ErrInvalidTransaction, "unsupported signature scheme %s", tx.Scheme)
	}
	if len(tx.PublicKey) != ed25519.PublicKeySize {
		return ierrors.Wrapf(types.ErrInvalidTransaction, "invalid public key length %d", len(tx.PublicKey))
	}
	if len(tx.Signature) != ed25519.SignatureSize {
		return ierrors.Wrapf(types.ErrInvalidTransaction, "invalid signature length %d", len(tx.Signature))
	}

	publicKey, _, err := ed25519.PublicKeyFromBytes(tx.PublicKey)
	if err != nil {
		return ierrors.Wrapf(types.ErrInvalidTransaction, "invalid public key: %s", err)
	}

	var signature ed25519.Signature
	copy(signature[:], tx.Signature)

	if !publicKey.VerifySignature(tx.TxBytes, signature) {
		return ierrors.Wrap(types.ErrInvalidTransaction, "invalid signature")
	}
	if AddressFromPublicKey(tx.Scheme, tx.PublicKey) != sender {
		return ierrors.Wrapf(types.ErrInvalidTransaction, "public key does not belong to sender %s", sender)
	}

	return nil
}
