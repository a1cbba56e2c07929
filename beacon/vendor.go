package beacon

import (
	"github.com/trambelus/Blueview/hci"
	"github.com/trambelus/Blueview/internal/bytecodec"
)

// VendorKind enumerates the recognised beacon vendors.
type VendorKind int

const (
	VendorUnknown VendorKind = iota
	VendorApple
	VendorGoogle
	VendorAruba
	VendorEstimote
	VendorEstimoteSticker
	VendorEddystone
)

var vendorNames = map[VendorKind]string{
	VendorUnknown:         "unknown",
	VendorApple:           "apple",
	VendorGoogle:          "google",
	VendorAruba:           "aruba",
	VendorEstimote:        "estimote",
	VendorEstimoteSticker: "estimote-sticker",
	VendorEddystone:       "eddystone",
}

func (k VendorKind) String() string {
	if n, ok := vendorNames[k]; ok {
		return n
	}
	return vendorNames[VendorUnknown]
}

// companyIDs is keyed on the big-endian rendering of the company identifier.
// feaa is the Eddystone service UUID rather than a company.
var companyIDs = map[string]VendorKind{
	"004c": VendorApple,
	"011b": VendorAruba,
	"00e0": VendorGoogle,
	"015d": VendorEstimote,
	"feaa": VendorEddystone,
	"180f": VendorEstimoteSticker,
}

// Vendor is a classified company identifier. ID keeps the big-endian hex id.
type Vendor struct {
	Kind VendorKind
	ID   string
}

func (v Vendor) String() string {
	return v.Kind.String()
}

// Classify resolves a big-endian company id such as "004c".
func Classify(id string) Vendor {
	if k, ok := companyIDs[id]; ok {
		return Vendor{Kind: k, ID: id}
	}
	return Vendor{Kind: VendorUnknown, ID: id}
}

const companyIDOffset = 15 // advertising data

// VendorOf reads the little-endian company id of a report and classifies it.
func VendorOf(f hci.Frame) Vendor {
	raw, ok := f.AdvertisingDataRange(companyIDOffset, companyIDOffset+2)
	if !ok {
		return Vendor{Kind: VendorUnknown}
	}
	id, err := bytecodec.SwapEndianWord(bytecodec.ToHex(raw))
	if err != nil {
		return Vendor{Kind: VendorUnknown}
	}
	return Classify(id)
}
