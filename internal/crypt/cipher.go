package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

// Encrypt applies AES-128-CBC with PKCS#7 padding to the compact stream.
func Encrypt(body, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("initializing cipher: %w", err)
	}
	padded := pad(body, block.BlockSize())
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(padded, padded)
	return padded, nil
}

// Decrypt inverts Encrypt. A wrong key normally surfaces as a padding error;
// a wrong IV alone changes only the first plaintext block.
func Decrypt(ct, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("initializing cipher: %w", err)
	}
	if len(ct) == 0 || len(ct)%block.BlockSize() != 0 {
		return nil, errors.New("ciphertext length is not a multiple of the block size")
	}
	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)
	return unpad(pt, block.BlockSize())
}

func pad(body []byte, blockSize int) []byte {
	n := blockSize - len(body)%blockSize
	padded := make([]byte, len(body)+n)
	copy(padded, body)
	for i := len(body); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func unpad(pt []byte, blockSize int) ([]byte, error) {
	n := int(pt[len(pt)-1])
	if n == 0 || n > blockSize || n > len(pt) {
		return nil, errors.New("invalid padding: wrong password or corrupt file")
	}
	for _, b := range pt[len(pt)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding: wrong password or corrupt file")
		}
	}
	return pt[:len(pt)-n], nil
}
