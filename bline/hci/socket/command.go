package socket

import (
	"encoding/binary"
	"time"

	"github.com/trambelus/Blueview/hci"
)

// ScanOptions configures LE scanning on a local controller.
type ScanOptions struct {
	Active           bool
	Interval         uint16 // units of 0.625 ms
	Window           uint16
	FilterDuplicates bool
	ReadTimeout      time.Duration
	CommandTimeout   time.Duration
}

// DefaultScanOptions mirrors hcitool lescan: passive, 10 ms interval and window.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Interval:         0x0010,
		Window:           0x0010,
		FilterDuplicates: true,
		ReadTimeout:      5 * time.Second,
		CommandTimeout:   time.Second,
	}
}

var (
	opReset             = hci.Opcode(hci.OGFHostController, hci.OCFReset)
	opSetScanParameters = hci.Opcode(hci.OGFLEController, hci.OCFLESetScanParameters)
	opSetScanEnable     = hci.Opcode(hci.OGFLEController, hci.OCFLESetScanEnable)
)

func scanParameters(o ScanOptions) []byte {
	p := make([]byte, hci.LESetScanParametersCPLen)
	if o.Active {
		p[0] = 0x01
	}
	binary.LittleEndian.PutUint16(p[1:], o.Interval)
	binary.LittleEndian.PutUint16(p[3:], o.Window)
	// p[5] own address type public, p[6] accept all advertisers
	return p
}

func scanEnable(enable, filterDuplicates bool) []byte {
	p := []byte{0x00, 0x00}
	if enable {
		p[0] = 0x01
	}
	if filterDuplicates {
		p[1] = 0x01
	}
	return p
}

// commandReply extracts the status of the Command Complete or Command Status
// event answering opcode.
func commandReply(event []byte, opcode uint16) (status uint8, ok bool) {
	if len(event) < 7 || event[0] != hci.PacketTypeEvent {
		return 0, false
	}
	switch event[1] {
	case hci.EventCommandComplete:
		// ncmd, opcode, status
		if binary.LittleEndian.Uint16(event[4:6]) != opcode {
			return 0, false
		}
		return event[6], true
	case hci.EventCommandStatus:
		// status, ncmd, opcode
		if binary.LittleEndian.Uint16(event[5:7]) != opcode {
			return 0, false
		}
		return event[3], true
	}
	return 0, false
}

// filter is struct hci_filter.
type filter struct {
	typeMask  uint32
	eventMask [2]uint32
	opcode    uint16
}

func (f *filter) setPacketType(t uint8) { f.typeMask |= 1 << (t & 31) }
func (f *filter) setEvent(e uint8)      { f.eventMask[e>>5] |= 1 << (e & 31) }

func (f filter) bytes() []byte {
	b := make([]byte, 14)
	binary.LittleEndian.PutUint32(b[0:], f.typeMask)
	binary.LittleEndian.PutUint32(b[4:], f.eventMask[0])
	binary.LittleEndian.PutUint32(b[8:], f.eventMask[1])
	binary.LittleEndian.PutUint16(b[12:], f.opcode)
	return b
}

// advertisingFilter passes LE Meta events only.
func advertisingFilter() filter {
	var f filter
	f.setPacketType(hci.PacketTypeEvent)
	f.setEvent(hci.EventLEMeta)
	return f
}

func commandFilter(opcode uint16) filter {
	var f filter
	f.setPacketType(hci.PacketTypeEvent)
	f.setEvent(hci.EventCommandComplete)
	f.setEvent(hci.EventCommandStatus)
	f.opcode = opcode
	return f
}
