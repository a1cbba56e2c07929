// Package beacon classifies advertising reports and decodes iBeacon and
// Eddystone payloads into Records.
//
// Decoding is a pure function of the event buffer and is safe for concurrent
// use on independent buffers.
package beacon

import (
	ble "github.com/trambelus/Blueview"
	"github.com/trambelus/Blueview/hci"
	"github.com/trambelus/Blueview/internal/bytecodec"
)

const (
	addrFrom = 7 // absolute
	addrTo   = 13
)

// Result is the outcome for one report. When Err is set the Record holds
// the address, vendor and RSSI but no Payload.
type Result struct {
	Record Record
	Err    error
}

// Address extracts the advertiser address of a report.
func Address(f hci.Frame) ble.Addr {
	b, ok := f.Absolute(addrFrom, addrTo)
	if !ok {
		return ble.Addr{}
	}
	return ble.AddrFromWire(b)
}

// RSSI returns the signed final byte of a report.
func RSSI(f hci.Frame) int8 {
	b, _ := f.Last()
	return int8(b)
}

// DecodeEvent splits an event and decodes each advertising report. Only a
// truncated event header fails the whole call.
func DecodeEvent(event []byte) ([]Result, error) {
	reports, err := hci.Split(event)
	if err != nil {
		return nil, err
	}
	var out []Result
	for reports.Next() {
		out = append(out, DecodeReport(reports.Report()))
	}
	return out, nil
}

// DecodeHex decodes an event given as a hex dump.
func DecodeHex(s string) ([]Result, error) {
	event, err := bytecodec.DecodeHex(s)
	if err != nil {
		return nil, err
	}
	return DecodeEvent(event)
}

// DecodeReport decodes one report.
func DecodeReport(r hci.Report) Result {
	f := r.Frame()
	rec := Record{
		Index:  r.Index,
		Addr:   Address(f),
		Vendor: VendorOf(f),
		RSSI:   RSSI(f),
		Packet: r.Event(),
	}
	var err error
	switch rec.Vendor.Kind {
	case VendorApple:
		var p IBeacon
		if p, err = DecodeIBeacon(f); err == nil {
			rec.Payload = p
		}
	case VendorEddystone:
		rec.Payload, err = DecodeEddystone(f)
	case VendorGoogle, VendorAruba, VendorEstimote, VendorEstimoteSticker, VendorUnknown:
		rec.Payload = Unknown{Raw: r.Bytes()}
	}
	return Result{Record: rec, Err: err}
}
