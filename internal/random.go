package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const resetTokenBytes = 32

// Character classes for temporary passwords. Visually confusable characters
// (0/O, 1/l/I) are excluded so a password survives being read over the phone
// or retyped from a plaintext email.
const (
	tempUpper  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	tempLower  = "abcdefghijkmnpqrstuvwxyz"
	tempDigits = "23456789"
)

// ErrNoCharacterClasses is returned by NewTempPassword when every character
// class has been disabled.
var ErrNoCharacterClasses = errors.New("temporary password requires at least one character class")

// NewOTP returns a uniformly sampled numeric one-time code of the given
// number of digits.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	otp := b.String()
	if len(otp) != digits {
		return "", fmt.Errorf("invalid otp generation length")
	}
	return otp, nil
}

// NewResetToken returns a hex-encoded token with 32 bytes of entropy. The
// plaintext is handed to the user exactly once; callers persist only
// HashToken of it.
func NewResetToken() (string, error) {
	var raw [resetTokenBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw[:]), nil
}

// HashToken returns the hex-encoded SHA-256 of a token plaintext. The same
// function runs on issue and on redemption so stored and presented values
// compare as equal strings.
func HashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// NewTempPassword returns a random password of the given length drawn from
// the enabled character classes, with at least one character from each
// enabled class. It fails fast when no class is enabled.
func NewTempPassword(length int, upper, lower, digits bool) (string, error) {
	if length <= 0 {
		return "", errors.New("invalid temporary password length")
	}

	var classes []string
	if upper {
		classes = append(classes, tempUpper)
	}
	if lower {
		classes = append(classes, tempLower)
	}
	if digits {
		classes = append(classes, tempDigits)
	}
	if len(classes) == 0 {
		return "", ErrNoCharacterClasses
	}
	if length < len(classes) {
		return "", errors.New("temporary password length below class count")
	}

	pool := strings.Join(classes, "")
	out := make([]byte, 0, length)

	// One pick per class first so every enabled class is represented.
	for _, class := range classes {
		c, err := randomByte(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := randomByte(pool)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	if err := shuffle(out); err != nil {
		return "", err
	}
	return string(out), nil
}

func randomByte(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}

func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
