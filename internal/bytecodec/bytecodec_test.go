package bytecodec

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHex(t *testing.T) {
	assert.Equal(t, "", ToHex(nil))
	assert.Equal(t, "00ff4c0a", ToHex([]byte{0x00, 0xff, 0x4c, 0x0a}))
	assert.Len(t, ToHex(make([]byte, 16)), 32)
}

func TestSwapEndianWord(t *testing.T) {
	got, err := SwapEndianWord("4c00")
	require.NoError(t, err)
	assert.Equal(t, "004c", got)

	got, err = SwapEndianWord("aafe")
	require.NoError(t, err)
	assert.Equal(t, "feaa", got)
}

func TestSwapEndianWordRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "4c", "4c000", "zz00"} {
		_, err := SwapEndianWord(in)
		assert.True(t, errors.Is(err, ErrFormat), "input %q", in)
	}
}

func TestSwapEndianWordRoundTrip(t *testing.T) {
	for v := 0; v <= 0xffff; v += 0x0101 {
		word := fmt.Sprintf("%04x", v)
		once, err := SwapEndianWord(word)
		require.NoError(t, err)
		twice, err := SwapEndianWord(once)
		require.NoError(t, err)
		assert.Equal(t, word, twice)
	}
}

func TestDecodeHex(t *testing.T) {
	got, err := DecodeHex("0x04 3E|0a_ff:01\n")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04, 0x3e, 0x0a, 0xff, 0x01}, got)

	_, err = DecodeHex("abc")
	assert.True(t, errors.Is(err, ErrFormat))

	_, err = DecodeHex("zz")
	assert.True(t, errors.Is(err, ErrFormat))
}
