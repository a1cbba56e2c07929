package ble

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/trambelus/Blueview/internal/bytecodec"
)

// Addr is a Bluetooth device address in display order, most significant byte first.
type Addr [6]byte

// AddrFromWire converts the little-endian address bytes of an HCI event.
func AddrFromWire(b []byte) Addr {
	var a Addr
	copy(a[:], Reverse(b))
	return a
}

// String renders the address as colon separated uppercase hex.
func (a Addr) String() string {
	parts := make([]string, len(a))
	for i := range a {
		parts[i] = strings.ToUpper(bytecodec.ToHex(a[i : i+1]))
	}
	return strings.Join(parts, ":")
}

// ParseAddr parses "AA:BB:CC:DD:EE:FF" (any case).
func ParseAddr(s string) (Addr, error) {
	var a Addr
	if strings.Count(s, ":") != len(a)-1 {
		return a, errors.Errorf("ble: address %q must have six colon separated bytes", s)
	}
	b, err := bytecodec.DecodeHex(s)
	if err != nil {
		return a, errors.Wrapf(err, "ble: address %q", s)
	}
	if len(b) != len(a) {
		return a, errors.Errorf("ble: address %q must have six colon separated bytes", s)
	}
	copy(a[:], b)
	return a, nil
}
