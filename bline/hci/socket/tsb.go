/*
Package socket carries HCI traffic: a raw Linux HCI socket, and the tsb
protocol that moves HCI packets between anchors and a BeaconLine client.
*/
package socket

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Data is one tsb packet: channel and type are varints with the high bit
// as continuation flag, the payload runs up to the CRC.
type Data struct {
	Ch      []byte
	Typ     []byte
	Payload []byte
}

func (td Data) String() string {
	typ := fmt.Sprintf("0x%X", td.Typ)
	if len(td.Typ) == 1 {
		if l, ok := TypLabel[td.Typ[0]]; ok {
			typ = l
		}
	}
	return fmt.Sprintf("ch=0x%X typ=%s payload=% X", td.Ch, typ, td.Payload)
}

const (
	Buflen int = 1000

	TypUnused  byte = 0x00
	TypRaw     byte = 0x01
	TypText    byte = 0x02
	TypHci     byte = 0x15
	TypLog     byte = 0x56
	TypError   byte = 0x57
	TypUnknown byte = 0x7f
)

// TypLabel names the packet types in log output.
var TypLabel = map[byte]string{
	TypRaw:     "raw",
	TypText:    "text",
	TypHci:     "hci",
	TypLog:     "log",
	TypError:   "error",
	TypUnknown: "unknown",
}

// ErrCrc is returned by Decode when the checksum does not match.
var ErrCrc = errors.New("tsb: crc mismatch")

const crcLen = 2

// AnchorChannel is the tsb channel an anchor's HCI traffic travels on.
func AnchorChannel(anchor int) byte {
	return byte(anchor*5 + 1)
}

// Encode appends the little-endian CRC to channel, type and payload.
func Encode(td Data) []byte {
	b := make([]byte, 0, len(td.Ch)+len(td.Typ)+len(td.Payload)+crcLen)
	b = append(b, td.Ch...)
	b = append(b, td.Typ...)
	b = append(b, td.Payload...)
	return binary.LittleEndian.AppendUint16(b, checkSum(b))
}

// varintEnd returns the index after the varint starting at i, bounded by end.
func varintEnd(b []byte, i, end int) int {
	for i < end && b[i]&0x80 != 0 {
		i++
	}
	return i + 1
}

// Decode splits a packet produced by Encode and verifies its CRC.
func Decode(packet []byte) (Data, error) {
	if len(packet) < 2+crcLen {
		return Data{}, errors.Errorf("tsb: packet too short: % X", packet)
	}
	body := len(packet) - crcLen
	c := varintEnd(packet, 0, body)
	t := varintEnd(packet, c, body)
	if t > body {
		return Data{}, errors.Errorf("tsb: no payload: % X", packet)
	}
	td := Data{Ch: packet[:c], Typ: packet[c:t], Payload: packet[t:body]}
	if crc := checkSum(packet[:body]); binary.LittleEndian.Uint16(packet[body:]) != crc {
		return td, errors.Wrapf(ErrCrc, "packet=% X want=%04X", packet, crc)
	}
	return td, nil
}

// checkSum is CRC-16/CCITT-FALSE.
func checkSum(b []byte) uint16 {
	crc := uint16(0xffff)
	for _, v := range b {
		crc ^= uint16(v) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// CobsEncode stuffs p so it contains no zero byte and appends the 0x00
// frame delimiter.
func CobsEncode(p []byte) []byte {
	out := make([]byte, 1, len(p)+len(p)/254+2)
	code := 0 // index of the pending length byte
	for _, v := range p {
		if v == 0 {
			out[code] = byte(len(out) - code)
			code = len(out)
			out = append(out, 0)
			continue
		}
		out = append(out, v)
		if len(out)-code == 0xff {
			out[code] = 0xff
			code = len(out)
			out = append(out, 0)
		}
	}
	out[code] = byte(len(out) - code)
	return append(out, 0)
}

// CobsDecode reverses CobsEncode. It returns nil for a malformed frame.
func CobsDecode(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b) && b[i] != 0; {
		n := int(b[i])
		if i+n >= len(b) {
			return nil
		}
		out = append(out, b[i+1:i+n]...)
		i += n
		if n < 0xff && b[i] != 0 {
			out = append(out, 0)
		}
	}
	return out
}

// readFrames splits r on cobs delimiters and hands every decoded packet to fn
// until r fails.
func readFrames(r io.Reader, fn func(Data)) error {
	buf := make([]byte, Buflen)
	var pending []byte
	for {
		n, err := r.Read(buf)
		pending = append(pending, buf[:n]...)
		for {
			i := bytes.IndexByte(pending, 0)
			if i < 0 {
				break
			}
			frame := pending[:i+1]
			pending = pending[i+1:]
			td, derr := Decode(CobsDecode(frame))
			if derr != nil {
				logger.Warn("dropping tsb packet", "err", derr)
				continue
			}
			fn(td)
		}
		if err != nil {
			return err
		}
	}
}

// GetData reads tsb data from io.Reader and puts it in a channel. done is
// closed when the reader fails.
func GetData(r io.Reader) (chan Data, chan struct{}) {
	c := make(chan Data, 100)
	done := make(chan struct{})

	go func() {
		defer close(done)
		err := readFrames(r, func(td Data) { c <- td })
		if err != nil && err != io.EOF {
			logger.Debug("tsb read stopped", "err", err)
		}
	}()
	return c, done
}

// PutData reads tsb data from a channel and writes it to the io.Writer. It
// stops when the channel is closed or a write fails.
func PutData(w io.Writer) chan Data {
	c := make(chan Data, 100)
	go func() {
		for td := range c {
			if _, err := w.Write(CobsEncode(Encode(td))); err != nil {
				logger.Error("tsb write failed", "err", err)
				return
			}
			if logger.IsTrace() {
				logger.Trace("tsb write", "data", td.String())
			}
		}
	}()
	return c
}
