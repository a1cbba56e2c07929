package socket

import (
	"bytes"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	td := Data{Ch: []byte{0x85, 0x06}, Typ: []byte{TypHci}, Payload: []byte{0x04, 0x3e, 0x00, 0x02}}
	got, err := Decode(Encode(td))
	require.NoError(t, err)
	assert.Equal(t, td, got)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte{0x06, 0x15})
	assert.Error(t, err)

	packet := Encode(Data{Ch: []byte{0x06}, Typ: []byte{TypHci}, Payload: []byte{0x01}})
	packet[2] ^= 0xff
	_, err = Decode(packet)
	assert.True(t, errors.Is(err, ErrCrc))
}

func TestCobs(t *testing.T) {
	long := bytes.Repeat([]byte{0x11}, 0xfe)
	for _, p := range [][]byte{
		{0x00},
		{0x11, 0x22, 0x00, 0x33},
		{0x00, 0x00, 0x01},
		long,
		append(append([]byte{}, long...), 0x00, 0x22),
	} {
		enc := CobsEncode(p)
		assert.Equal(t, byte(0), enc[len(enc)-1])
		assert.NotContains(t, enc[:len(enc)-1], byte(0))
		assert.Equal(t, p, CobsDecode(enc), "% x", p)
	}
	assert.Nil(t, CobsDecode(nil))
}

func TestReadFrames(t *testing.T) {
	var stream bytes.Buffer
	want := []Data{
		{Ch: []byte{0x06}, Typ: []byte{TypHci}, Payload: []byte{0x04, 0x3e, 0x00}},
		{Ch: []byte{0x0b}, Typ: []byte{TypError}, Payload: []byte("no scan")},
	}
	for _, td := range want {
		stream.Write(CobsEncode(Encode(td)))
	}
	stream.Write([]byte{0x02, 0x01, 0x00}) // garbage frame is skipped

	var got []Data
	err := readFrames(&stream, func(td Data) { got = append(got, td) })
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, want, got)
}

func TestAnchorChannel(t *testing.T) {
	assert.Equal(t, byte(6), AnchorChannel(1))
	assert.Equal(t, byte(11), AnchorChannel(2))
}

func TestDataString(t *testing.T) {
	td := Data{Ch: []byte{0x06}, Typ: []byte{TypHci}, Payload: []byte{0x04, 0x3e}}
	assert.Equal(t, "ch=0x06 typ=hci payload=04 3E", td.String())
	td.Typ = []byte{0x33}
	assert.Equal(t, "ch=0x06 typ=0x33 payload=04 3E", td.String())
}

func TestEncodeLayout(t *testing.T) {
	packet := Encode(Data{Ch: []byte{0x06}, Typ: []byte{TypHci}, Payload: []byte{0x01}})
	require.Len(t, packet, 5)
	crc := checkSum(packet[:3])
	assert.Equal(t, byte(crc), packet[3])
	assert.Equal(t, byte(crc>>8), packet[4])
	// CRC-16/CCITT-FALSE check value
	assert.Equal(t, uint16(0x29b1), checkSum([]byte("123456789")))
}
