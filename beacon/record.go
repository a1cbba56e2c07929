package beacon

import (
	"fmt"
	"strings"

	ble "github.com/trambelus/Blueview"
	"github.com/trambelus/Blueview/internal/bytecodec"
)

// Record is the decoded form of one advertising report.
type Record struct {
	Index   int
	Addr    ble.Addr
	Vendor  Vendor
	Payload Payload
	RSSI    int8
	// Packet is the whole event the report came from.
	Packet []byte
}

// MAC renders the device address as colon separated uppercase hex.
func (r Record) MAC() string { return r.Addr.String() }

// Address implements ble.Advertisement.
func (r Record) Address() ble.Addr { return r.Addr }

// Manufacturer implements ble.Advertisement.
func (r Record) Manufacturer() string { return r.Vendor.String() }

// SignalStrength implements ble.Advertisement.
func (r Record) SignalStrength() int { return int(r.RSSI) }

// Raw implements ble.Advertisement.
func (r Record) Raw() []byte { return r.Packet }

// PacketHex is the hex dump of the event.
func (r Record) PacketHex() string { return bytecodec.ToHex(r.Packet) }

// Fields returns the form fields posted to a collector: packet, mac and
// either uuid (iBeacon) or manufacturer.
func (r Record) Fields() map[string]string {
	f := map[string]string{
		"packet": r.PacketHex(),
		"mac":    r.MAC(),
	}
	if ib, ok := r.Payload.(IBeacon); ok {
		f["uuid"] = ib.UUIDHex()
	} else {
		f["manufacturer"] = r.Manufacturer()
	}
	return f
}

// Summary returns a map suited for JSON or YAML rendering.
func (r Record) Summary() map[string]any {
	s := map[string]any{
		"mac":          r.MAC(),
		"manufacturer": r.Manufacturer(),
		"company_id":   r.Vendor.ID,
		"rssi":         int(r.RSSI),
		"packet":       r.PacketHex(),
	}
	if r.Payload == nil {
		return s
	}
	s["type"] = r.Payload.Kind()
	switch p := r.Payload.(type) {
	case IBeacon:
		s["uuid"] = p.UUID.String()
		s["major"] = int(p.Major)
		s["minor"] = int(p.Minor)
	case EddystoneUID:
		s["namespace"] = bytecodec.ToHex(p.Namespace[:])
		s["instance"] = bytecodec.ToHex(p.Instance[:])
	case EddystoneURL:
		s["url"] = p.URL()
	case EddystoneTLM:
		s["tlm"] = bytecodec.ToHex(p.Frame)
	case Unknown:
		s["raw"] = bytecodec.ToHex(p.Raw)
	}
	return s
}

// String renders the record as a terminal block.
func (r Record) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "MAC: %s\n", r.MAC())
	fmt.Fprintf(&b, "  MAN.: %s\n", r.Manufacturer())
	switch p := r.Payload.(type) {
	case IBeacon:
		fmt.Fprintf(&b, "  UUID: %s\n", p.UUIDHex())
		fmt.Fprintf(&b, "  MAJOR: 0x%04x\n", p.Major)
		fmt.Fprintf(&b, "  MINOR: 0x%04x\n", p.Minor)
	case EddystoneUID:
		fmt.Fprintf(&b, "  NAMESPACE: %s\n", bytecodec.ToHex(p.Namespace[:]))
		fmt.Fprintf(&b, "  INSTANCE: %s\n", bytecodec.ToHex(p.Instance[:]))
	case EddystoneURL:
		fmt.Fprintf(&b, "  Website: %s\n", p.URL())
	case EddystoneTLM:
		fmt.Fprintf(&b, "  TLM: %s\n", bytecodec.ToHex(p.Frame))
	}
	fmt.Fprintf(&b, "  RSSI: %d\n", r.RSSI)
	return b.String()
}
