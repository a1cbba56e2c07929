package hci

// HCI Packet types
const (
	PacketTypeCommand uint8 = 0x01
	PacketTypeACLData uint8 = 0x02
	PacketTypeSCOData uint8 = 0x03
	PacketTypeEvent   uint8 = 0x04
	PacketTypeVendor  uint8 = 0xFF
)

// Event codes [Vol 2, Part E, 7.7].
const (
	EventCommandComplete uint8 = 0x0e
	EventCommandStatus   uint8 = 0x0f
	EventLEMeta          uint8 = 0x3e
)

// LE Meta sub-event codes [Vol 2, Part E, 7.7.65].
const (
	SubeventConnectionComplete         uint8 = 0x01
	SubeventAdvertisingReport          uint8 = 0x02
	SubeventConnectionUpdateComplete   uint8 = 0x03
	SubeventReadRemoteFeaturesComplete uint8 = 0x04
)

// Event Types [Vol 6 Part B, 2.3 Advertising PDU, 4.4.2].
const (
	AdvInd        uint8 = 0x00 // Connectable undirected advertising (ADV_IND).
	AdvDirectInd  uint8 = 0x01 // Connectable directed advertising (ADV_DIRECT_IND).
	AdvScanInd    uint8 = 0x02 // Scannable undirected advertising (ADV_SCAN_IND).
	AdvNonconnInd uint8 = 0x03 // Non connectable undirected advertising (ADV_NONCONN_IND).
	ScanRsp       uint8 = 0x04 // Scan Response (SCAN_RSP).
)

// Advertiser address types.
const (
	AddressPublic uint8 = 0x00
	AddressRandom uint8 = 0x01
)

// Command groups and commands used while scanning.
const (
	OGFHostController uint8 = 0x03
	OGFLEController   uint8 = 0x08

	OCFReset                 uint16 = 0x0003
	OCFLESetScanParameters   uint16 = 0x000B
	OCFLESetScanEnable       uint16 = 0x000C
	OCFLECreateConn          uint16 = 0x000D
	LESetScanParametersCPLen        = 7
)

// Opcode packs a command group and command into an HCI opcode.
func Opcode(ogf uint8, ocf uint16) uint16 {
	return uint16(ogf)<<10 | ocf&0x03ff
}

// Command encodes an HCI command packet.
func Command(opcode uint16, params ...byte) []byte {
	b := make([]byte, 4, 4+len(params))
	b[0] = PacketTypeCommand
	b[1] = byte(opcode)
	b[2] = byte(opcode >> 8)
	b[3] = byte(len(params))
	return append(b, params...)
}

// Event layout.
const (
	offsetEventCode  = 1
	offsetSubevent   = 3
	offsetNumReports = 4

	headerLen     = 3
	metaHeaderLen = 5

	// advertising data parameters start after the sub-event byte
	advertisingDataOffset = 4
)

// Report layout: event type, address type, address, data length, data, RSSI.
const (
	reportOffsetEventType   = 0
	reportOffsetAddressType = 1
	reportOffsetDataLen     = 8
	reportFixedLen          = 10
)
