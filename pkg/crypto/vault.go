package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

const (
	keySize   = 32
	nonceSize = 16

	// APIKeyPrefix marks bearer tokens as API keys rather than session tokens.
	APIKeyPrefix = "v9cf_"
)

var (
	// ErrKeySize is returned when the master key does not normalize to 32 bytes.
	ErrKeySize = errors.New("encryption key must be 32 bytes (raw), 64 hex chars, or 44 base64 chars")
	// ErrIntegrity is returned when the authentication tag does not verify.
	ErrIntegrity = errors.New("ciphertext integrity check failed")
)

// EncryptedData holds one sealed payload. All three fields are base64 and
// all three must survive storage unmodified for Decrypt to succeed.
type EncryptedData struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	Tag        string `json:"tag"`
}

// Vault encrypts and decrypts secrets at rest with AES-256-GCM.
type Vault struct {
	aead cipher.AEAD
}

// NewVault normalizes the configured master key and prepares the cipher.
// The key is accepted raw (32 bytes), hex-encoded (64 chars) or
// base64-encoded (44 chars); anything else is a configuration error.
func NewVault(masterKey string) (*Vault, error) {
	key, err := normalizeKey(masterKey)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, err
	}

	return &Vault{aead: aead}, nil
}

func normalizeKey(masterKey string) ([]byte, error) {
	if masterKey == "" {
		return nil, ErrKeySize
	}

	switch len(masterKey) {
	case hex.EncodedLen(keySize):
		key, err := hex.DecodeString(masterKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeySize, err)
		}
		return key, nil
	case base64.StdEncoding.EncodedLen(keySize):
		key, err := base64.StdEncoding.DecodeString(masterKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeySize, err)
		}
		return key, nil
	case keySize:
		return []byte(masterKey), nil
	default:
		return nil, ErrKeySize
	}
}

// Encrypt seals plaintext under a fresh random nonce. The GCM tag is split
// off the sealed blob so the stored record is {ciphertext, iv, tag}.
func (v *Vault) Encrypt(plaintext []byte) (*EncryptedData, error) {
	iv := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	sealed := v.aead.Seal(nil, iv, plaintext, nil)
	tagStart := len(sealed) - v.aead.Overhead()

	return &EncryptedData{
		Ciphertext: base64.StdEncoding.EncodeToString(sealed[:tagStart]),
		IV:         base64.StdEncoding.EncodeToString(iv),
		Tag:        base64.StdEncoding.EncodeToString(sealed[tagStart:]),
	}, nil
}

// Decrypt opens a sealed record. Any corruption of ciphertext, IV or tag
// yields ErrIntegrity; plaintext is never returned on a failed tag check.
func (v *Vault) Decrypt(data *EncryptedData) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(data.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: bad ciphertext encoding", ErrIntegrity)
	}
	iv, err := base64.StdEncoding.DecodeString(data.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: bad iv encoding", ErrIntegrity)
	}
	tag, err := base64.StdEncoding.DecodeString(data.Tag)
	if err != nil {
		return nil, fmt.Errorf("%w: bad tag encoding", ErrIntegrity)
	}

	if len(iv) != nonceSize || len(tag) != v.aead.Overhead() {
		return nil, ErrIntegrity
	}

	plaintext, err := v.aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return nil, ErrIntegrity
	}

	return plaintext, nil
}

// GeneratedKey is the result of minting a new API key. Key holds the raw
// secret and is returned exactly once; only Hash is ever persisted.
type GeneratedKey struct {
	Key    string
	Hash   string
	Prefix string
	Last4  string
}

// GenerateAPIKey mints a high-entropy API key with a recognizable prefix.
func GenerateAPIKey() (*GeneratedKey, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}

	randomPart := base64.RawURLEncoding.EncodeToString(raw)
	key := APIKeyPrefix + randomPart

	return &GeneratedKey{
		Key:    key,
		Hash:   HashAPIKey(key),
		Prefix: APIKeyPrefix,
		Last4:  randomPart[len(randomPart)-4:],
	}, nil
}

// HashAPIKey computes the deterministic lookup hash for an API key. The
// key itself carries the entropy, so a fast one-way digest is enough.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// GenerateMasterKey returns a fresh hex-encoded 256-bit key, suitable for
// the ENCRYPTION_KEY environment variable. Run once, store in the env.
func GenerateMasterKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
