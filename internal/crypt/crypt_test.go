package crypt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLCG_KnownSequence(t *testing.T) {
	t.Parallel()

	// minstd_rand0 from seed 1.
	g := NewLCG(1)
	assert.EqualValues(t, 16807, g.Next())
	assert.EqualValues(t, 282475249, g.Next())
	assert.EqualValues(t, 1622650073, g.Next())
}

func TestLCG_ZeroSeedMapsToOne(t *testing.T) {
	t.Parallel()

	assert.EqualValues(t, 16807, NewLCG(0).Next())
	assert.EqualValues(t, 16807, NewLCG(lcgModulus).Next())
}

func TestCheckPassword(t *testing.T) {
	t.Parallel()

	assert.Error(t, CheckPassword(nil))
	assert.Error(t, CheckPassword([]byte("short")))
	assert.NoError(t, CheckPassword([]byte("12345678")))
}

func TestDeriveLegacy(t *testing.T) {
	t.Parallel()

	pass := []byte("correct horse battery staple")
	key1, iv1, err := DeriveLegacy(pass)
	require.NoError(t, err)
	key2, iv2, err := DeriveLegacy(pass)
	require.NoError(t, err)

	assert.Len(t, key1, KeySize)
	assert.Len(t, iv1, IVSize)
	assert.Equal(t, key1, key2)
	assert.Equal(t, iv1, iv2)
	assert.NotEqual(t, key1, iv1)

	// The historical %255 keeps every byte below 255.
	for _, b := range append(append([]byte{}, key1...), iv1...) {
		assert.Less(t, b, byte(255))
	}

	otherKey, _, err := DeriveLegacy([]byte("a different password"))
	require.NoError(t, err)
	assert.NotEqual(t, key1, otherKey)

	_, _, err = DeriveLegacy([]byte("short"))
	assert.Error(t, err)
}

func TestDeriveKDF(t *testing.T) {
	t.Parallel()

	pass := []byte("correct horse battery staple")
	key, iv, err := DeriveKDF(pass)
	require.NoError(t, err)
	assert.Len(t, key, KeySize)
	assert.Len(t, iv, IVSize)

	legacyKey, _, err := DeriveLegacy(pass)
	require.NoError(t, err)
	assert.NotEqual(t, legacyKey, key)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	t.Parallel()

	key, iv, err := DeriveLegacy([]byte("12345678"))
	require.NoError(t, err)

	for _, size := range []int{0, 1, 15, 16, 17, 1000} {
		body := bytes.Repeat([]byte{0xA5}, size)
		ct, err := Encrypt(body, key, iv)
		require.NoError(t, err)
		assert.Zero(t, len(ct)%16)
		assert.NotEqual(t, body, ct)

		pt, err := Decrypt(ct, key, iv)
		require.NoError(t, err)
		assert.Equal(t, body, pt)
	}
}

func TestDecrypt_BadInput(t *testing.T) {
	t.Parallel()

	key, iv, err := DeriveLegacy([]byte("12345678"))
	require.NoError(t, err)

	_, err = Decrypt(nil, key, iv)
	assert.Error(t, err)

	_, err = Decrypt([]byte{1, 2, 3}, key, iv)
	assert.Error(t, err)
}

func TestShuffleSeed(t *testing.T) {
	t.Parallel()

	s1 := ShuffleSeed([]byte("12345678"))
	s2 := ShuffleSeed([]byte("12345678"))
	s3 := ShuffleSeed([]byte("abcdefgh"))
	assert.Equal(t, s1, s2)
	assert.NotEqual(t, s1, s3)
}

func TestShuffleUnshuffle_RoundTrip(t *testing.T) {
	t.Parallel()

	seed := ShuffleSeed([]byte("12345678"))
	for _, size := range []int{0, 1, 2, 3, 100, 4096} {
		orig := make([]byte, size)
		for i := range orig {
			orig[i] = byte(i * 7)
		}
		data := append([]byte{}, orig...)
		Shuffle(data, seed)
		if size > 64 {
			assert.NotEqual(t, orig, data, "size %d should be permuted", size)
		}
		Unshuffle(data, seed)
		assert.Equal(t, orig, data, "size %d", size)
	}
}

func TestShuffle_SeedChangesPermutation(t *testing.T) {
	t.Parallel()

	orig := make([]byte, 1024)
	for i := range orig {
		orig[i] = byte(i)
	}
	a := append([]byte{}, orig...)
	b := append([]byte{}, orig...)
	Shuffle(a, ShuffleSeed([]byte("12345678")))
	Shuffle(b, ShuffleSeed([]byte("abcdefgh")))
	assert.NotEqual(t, a, b)
}
