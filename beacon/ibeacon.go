package beacon

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/trambelus/Blueview/hci"
)

// The iBeacon fields trail the advertising data: UUID, major, minor,
// measured power, then the RSSI appended by the controller.
const (
	ibeaconTailLen = 22
	ibeaconMajorAt = 6
	ibeaconMinorAt = 4
	ibeaconPowerAt = 2
)

// DecodeIBeacon decodes an Apple report. Fields are anchored to the end of
// the report so variable length data before them does not matter.
func DecodeIBeacon(f hci.Frame) (IBeacon, error) {
	if n := len(f.AdvertisingData()); n < ibeaconTailLen {
		return IBeacon{}, errors.Wrapf(ErrTruncatedPayload, "ibeacon needs %d bytes of advertising data, got %d", ibeaconTailLen, n)
	}
	id, _ := f.FromEnd(ibeaconTailLen, ibeaconMajorAt)
	major, _ := f.FromEnd(ibeaconMajorAt, ibeaconMinorAt)
	minor, _ := f.FromEnd(ibeaconMinorAt, ibeaconPowerAt)

	var p IBeacon
	copy(p.UUID[:], id)
	p.Major = binary.BigEndian.Uint16(major)
	p.Minor = binary.BigEndian.Uint16(minor)
	return p, nil
}
