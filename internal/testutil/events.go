// Package testutil builds synthetic HCI advertising events for tests.
package testutil

import "github.com/trambelus/Blueview/internal/bytecodec"

// Report describes one advertising report; Addr is in display order.
type Report struct {
	EventType   byte
	AddressType byte
	Addr        [6]byte
	Data        []byte
	RSSI        int8
}

// Event encodes an LE Meta / Advertising Report event carrying reports.
func Event(reports ...Report) []byte {
	b := []byte{0x04, 0x3e, 0x00, 0x02, byte(len(reports))}
	for _, r := range reports {
		b = append(b, r.EventType, r.AddressType)
		for i := len(r.Addr) - 1; i >= 0; i-- {
			b = append(b, r.Addr[i])
		}
		b = append(b, byte(len(r.Data)))
		b = append(b, r.Data...)
		b = append(b, byte(r.RSSI))
	}
	b[2] = byte(len(b) - 3)
	return b
}

// DefaultAddr is the address used by the single-report helpers.
var DefaultAddr = [6]byte{0xc0, 0x0a, 0xde, 0xad, 0xbe, 0xef}

// flags is the AD structure every beacon starts with: LE general discoverable, BR/EDR unsupported.
var flags = []byte{0x02, 0x01, 0x06}

// IBeaconData returns the advertising data of an iBeacon.
func IBeaconData(uuid [16]byte, major, minor uint16, txPower int8) []byte {
	d := append([]byte{}, flags...)
	d = append(d, 0x1a, 0xff, 0x4c, 0x00, 0x02, 0x15)
	d = append(d, uuid[:]...)
	d = append(d, byte(major>>8), byte(major), byte(minor>>8), byte(minor), byte(txPower))
	return d
}

// IBeaconEvent returns a single-report iBeacon event.
func IBeaconEvent(uuid [16]byte, major, minor uint16, rssi int8) []byte {
	return Event(Report{
		EventType: 0x03,
		Addr:      DefaultAddr,
		Data:      IBeaconData(uuid, major, minor, -59),
		RSSI:      rssi,
	})
}

// EddystoneData returns the advertising data of an Eddystone frame.
func EddystoneData(frameType byte, body []byte) []byte {
	d := append([]byte{}, flags...)
	d = append(d, 0x03, 0x03, 0xaa, 0xfe)
	d = append(d, byte(4+len(body)), 0x16, 0xaa, 0xfe, frameType)
	return append(d, body...)
}

// EddystoneURLEvent returns a single-report Eddystone-URL event.
func EddystoneURLEvent(scheme byte, suffix []byte, rssi int8) []byte {
	body := append([]byte{0xeb, scheme}, suffix...)
	return Event(Report{Addr: DefaultAddr, Data: EddystoneData(0x10, body), RSSI: rssi})
}

// EddystoneUIDEvent returns a single-report Eddystone-UID event.
func EddystoneUIDEvent(namespace [10]byte, instance [6]byte, rssi int8) []byte {
	body := append([]byte{0xeb}, namespace[:]...)
	body = append(body, instance[:]...)
	body = append(body, 0x00, 0x00)
	return Event(Report{Addr: DefaultAddr, Data: EddystoneData(0x00, body), RSSI: rssi})
}

// EddystoneTLMEvent returns a single-report Eddystone-TLM event.
func EddystoneTLMEvent(rssi int8) []byte {
	body := []byte{0x00, 0x0b, 0xb8, 0x15, 0x80, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x00}
	return Event(Report{Addr: DefaultAddr, Data: EddystoneData(0x20, body), RSSI: rssi})
}

// ManufacturerEvent returns an event whose manufacturer data carries company id
// (little-endian on the wire).
func ManufacturerEvent(company uint16, payload []byte, rssi int8) []byte {
	d := append([]byte{}, flags...)
	d = append(d, byte(3+len(payload)), 0xff, byte(company), byte(company>>8))
	d = append(d, payload...)
	return Event(Report{Addr: DefaultAddr, Data: d, RSSI: rssi})
}

// Hex renders an event the way the scanner logs it.
func Hex(event []byte) string {
	return bytecodec.ToHex(event)
}
