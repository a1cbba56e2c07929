package beacon

import (
	"github.com/google/uuid"
	"github.com/trambelus/Blueview/internal/bytecodec"
)

// Payload is the vendor specific part of a Record: one of IBeacon,
// EddystoneUID, EddystoneURL, EddystoneTLM or Unknown.
type Payload interface {
	Kind() string
	isPayload()
}

// IBeacon is Apple's proximity beacon.
type IBeacon struct {
	UUID  uuid.UUID
	Major uint16
	Minor uint16
}

// UUIDHex renders the proximity UUID as 32 lowercase hex digits.
func (p IBeacon) UUIDHex() string { return bytecodec.ToHex(p.UUID[:]) }

// EddystoneUID is frame type 0x00.
type EddystoneUID struct {
	Namespace [10]byte
	Instance  [6]byte
}

// Scheme is the Eddystone-URL prefix code.
type Scheme uint8

const (
	SchemeHTTPWWW  Scheme = 0x00
	SchemeHTTPSWWW Scheme = 0x01
	SchemeHTTP     Scheme = 0x02
	SchemeHTTPS    Scheme = 0x03
)

var schemePrefixes = map[Scheme]string{
	SchemeHTTPWWW:  "http://www.",
	SchemeHTTPSWWW: "https://www.",
	SchemeHTTP:     "http://",
	SchemeHTTPS:    "https://",
}

// Prefix returns the expansion of the scheme, "" for unknown codes.
func (s Scheme) Prefix() string { return schemePrefixes[s] }

func (s Scheme) valid() bool {
	_, ok := schemePrefixes[s]
	return ok
}

// EddystoneURL is frame type 0x10.
type EddystoneURL struct {
	Scheme Scheme
	Suffix string
}

// URL joins the scheme prefix and suffix.
func (p EddystoneURL) URL() string { return p.Scheme.Prefix() + p.Suffix }

// EddystoneTLM is frame type 0x20. The telemetry fields are kept undecoded.
type EddystoneTLM struct {
	Frame []byte
}

// Unknown carries reports no decoder claims.
type Unknown struct {
	Raw []byte
}

func (IBeacon) Kind() string      { return "ibeacon" }
func (EddystoneUID) Kind() string { return "eddystone-uid" }
func (EddystoneURL) Kind() string { return "eddystone-url" }
func (EddystoneTLM) Kind() string { return "eddystone-tlm" }
func (Unknown) Kind() string      { return "unknown" }

func (IBeacon) isPayload()      {}
func (EddystoneUID) isPayload() {}
func (EddystoneURL) isPayload() {}
func (EddystoneTLM) isPayload() {}
func (Unknown) isPayload()      {}
