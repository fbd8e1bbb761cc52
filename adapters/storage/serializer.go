package storage

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"reflect"

	"gorm.io/gorm/schema"
)

const encryptedSerializerName = "encrypted"

// EncryptedSerializer stores string fields as base64(nonce || AES-256-GCM ciphertext).
// Empty strings are stored as-is.
type EncryptedSerializer struct {
	aead cipher.AEAD
}

func NewEncryptedSerializer(secret string) (*EncryptedSerializer, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &EncryptedSerializer{aead: aead}, nil
}

// RegisterEncryptedSerializer makes `serializer:encrypted` available to gorm models.
func RegisterEncryptedSerializer(secret string) {
	s, err := NewEncryptedSerializer(secret)
	if err != nil {
		// sha256 always yields a valid AES-256 key
		panic(err)
	}
	schema.RegisterSerializer(encryptedSerializerName, s)
}

func (s *EncryptedSerializer) Encrypt(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *EncryptedSerializer) Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	n := s.aead.NonceSize()
	if len(raw) < n {
		return "", errors.New("ciphertext too short")
	}
	plain, err := s.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plain), nil
}

func (s *EncryptedSerializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue interface{}) error {
	var encoded string
	switch v := dbValue.(type) {
	case nil:
	case string:
		encoded = v
	case []byte:
		encoded = string(v)
	default:
		return fmt.Errorf("encrypted field %s: unsupported db value %T", field.Name, dbValue)
	}

	plain, err := s.Decrypt(encoded)
	if err != nil {
		return fmt.Errorf("encrypted field %s: %w", field.Name, err)
	}
	field.ReflectValueOf(ctx, dst).SetString(plain)
	return nil
}

func (s *EncryptedSerializer) Value(ctx context.Context, field *schema.Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	plain, ok := fieldValue.(string)
	if !ok {
		return nil, fmt.Errorf("encrypted field %s: unsupported value %T", field.Name, fieldValue)
	}
	return s.Encrypt(plain)
}
