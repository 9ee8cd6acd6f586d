package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// HashSize is the length of a raw digest.
	HashSize = sha1.Size
	// HexSize is the length of a hex-encoded digest.
	HexSize = 2 * HashSize
)

// HashObject computes the SHA-1 of the envelope "type len\0content".
func HashObject(objType ObjectType, data []byte) Hash {
	h := sha1.New()
	h.Write(envelopeHeader(objType, len(data)))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

func envelopeHeader(objType ObjectType, n int) []byte {
	return []byte(fmt.Sprintf("%s %d\x00", objType, n))
}

// ParseHash validates a full hex digest and returns it lowercased.
func ParseHash(s string) (Hash, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !IsHex(s) || len(s) != HexSize {
		return "", fmt.Errorf("parse hash %q: %w", s, ErrInvalidFormat)
	}
	return Hash(s), nil
}

// HashFromBytes converts a raw 20-byte digest to its hex form.
func HashFromBytes(b []byte) (Hash, error) {
	if len(b) != HashSize {
		return "", fmt.Errorf("raw hash length %d: %w", len(b), ErrInvalidFormat)
	}
	return Hash(hex.EncodeToString(b)), nil
}

// Bytes returns the raw digest bytes.
func (h Hash) Bytes() ([]byte, error) {
	if len(h) != HexSize {
		return nil, fmt.Errorf("hash %q: %w", string(h), ErrInvalidFormat)
	}
	b, err := hex.DecodeString(string(h))
	if err != nil {
		return nil, fmt.Errorf("hash %q: %w", string(h), ErrInvalidFormat)
	}
	return b, nil
}

// Short returns the 7-character abbreviation used in human output.
func (h Hash) Short() string {
	if len(h) <= 7 {
		return string(h)
	}
	return string(h[:7])
}

// IsHex reports whether s is non-empty and made only of hex digits.
func IsHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
