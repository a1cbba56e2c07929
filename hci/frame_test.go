package hci

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameAbsolute(t *testing.T) {
	f := NewFrame([]byte{0, 1, 2, 3, 4, 5, 6, 7})

	b, ok := f.Absolute(2, 5)
	require.True(t, ok)
	assert.Equal(t, []byte{2, 3, 4}, b)

	v, ok := f.AtAbsolute(7)
	require.True(t, ok)
	assert.Equal(t, byte(7), v)

	_, ok = f.AtAbsolute(8)
	assert.False(t, ok)
	_, ok = f.Absolute(-1, 2)
	assert.False(t, ok)
	_, ok = f.Absolute(5, 2)
	assert.False(t, ok)
}

func TestFrameAdvertisingData(t *testing.T) {
	f := NewFrame([]byte{0, 1, 2, 3, 4, 5, 6, 7})
	assert.Equal(t, []byte{4, 5, 6, 7}, f.AdvertisingData())

	b, ok := f.AdvertisingDataRange(1, 3)
	require.True(t, ok)
	assert.Equal(t, []byte{5, 6}, b)

	v, ok := f.AtAdvertisingData(0)
	require.True(t, ok)
	assert.Equal(t, byte(4), v)

	_, ok = f.AtAdvertisingData(4)
	assert.False(t, ok)
	_, ok = f.AdvertisingDataRange(-1, 1)
	assert.False(t, ok)

	assert.Nil(t, NewFrame([]byte{0, 1, 2}).AdvertisingData())
}

func TestFrameFromEnd(t *testing.T) {
	f := NewFrame([]byte{0, 1, 2, 3, 4, 5, 6, 7})

	b, ok := f.FromEnd(4, 2)
	require.True(t, ok)
	assert.Equal(t, []byte{4, 5}, b)

	b, ok = f.FromEnd(2, 0)
	require.True(t, ok)
	assert.Equal(t, []byte{6, 7}, b)

	last, ok := f.Last()
	require.True(t, ok)
	assert.Equal(t, byte(7), last)

	_, ok = f.FromEnd(9, 0)
	assert.False(t, ok)
	_, ok = f.FromEnd(1, 2)
	assert.False(t, ok)
	_, ok = NewFrame(nil).Last()
	assert.False(t, ok)
}

func TestFrameOfLaterReport(t *testing.T) {
	buf := []byte{9, 9, 9, 0, 1, 2, 3, 4, 5}
	f := Frame{buf: buf, start: 3, end: len(buf)}

	assert.Equal(t, 6, f.Len())
	v, _ := f.AtAbsolute(0)
	assert.Equal(t, byte(0), v)
	assert.Equal(t, []byte{4, 5}, f.AdvertisingData())
}
