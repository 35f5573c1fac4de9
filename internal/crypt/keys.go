package crypt

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// AES-128 key and CBC block sizes.
const (
	KeySize = 16
	IVSize  = 16
)

// MinPasswordLen is the minimum accepted password length in bytes.
const MinPasswordLen = 8

// Legacy derivation seeds. The password bytes at fixed offsets feed a first
// generator whose output is folded into the seed of a second one.
const (
	keySeedMul = 24593
	keySeedAdd = 49157
	ivSeedMul  = 7919
	ivSeedAdd  = 75653
)

// PBKDF2 parameters for the modern derivation path.
const (
	kdfIterations = 1 << 16
	kdfSalt       = "cryfa.v1.kdf"
)

// CheckPassword validates the password read from the key file.
func CheckPassword(pass []byte) error {
	if len(pass) == 0 {
		return errors.New("key file is empty")
	}
	if len(pass) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d bytes", MinPasswordLen)
	}
	return nil
}

// DeriveLegacy computes the key and IV with the legacy construction.
func DeriveLegacy(pass []byte) (key, iv []byte, err error) {
	if err := CheckPassword(pass); err != nil {
		return nil, nil, err
	}
	key = legacyFill(pass, keySeedMul*uint64(pass[0])*uint64(pass[2])+keySeedAdd, KeySize)
	iv = legacyFill(pass, ivSeedMul*uint64(pass[2])*uint64(pass[5])+ivSeedAdd, IVSize)
	return key, iv, nil
}

// legacyFill mirrors the original derivation: a first generator mixes the
// password bytes in descending order into a 32-bit seed, a second generator
// fills the output back to front. The %255 keeps the historical bias
// (bytes 0..254 only).
func legacyFill(pass []byte, seed uint64, n int) []byte {
	mixer := NewLCG(seed)
	var acc uint64
	for i := len(pass) - 1; i >= 0; i-- {
		acc += uint64(pass[i]) * (mixer.Next() + mixer.Next())
	}
	acc %= 4294967295

	filler := NewLCG(acc)
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(filler.Next()%256) % 255
	}
	return out
}

// DeriveKDF computes the key and IV with PBKDF2-HMAC-SHA256. Both sides of
// a transfer must opt in; the output is not compatible with DeriveLegacy.
func DeriveKDF(pass []byte) (key, iv []byte, err error) {
	if err := CheckPassword(pass); err != nil {
		return nil, nil, err
	}
	buf := pbkdf2.Key(pass, []byte(kdfSalt), kdfIterations, KeySize+IVSize, sha256.New)
	return buf[:KeySize], buf[KeySize:], nil
}
