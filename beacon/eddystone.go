package beacon

import (
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/trambelus/Blueview/hci"
)

// Eddystone frame types.
const (
	FrameUID byte = 0x00
	FrameURL byte = 0x10
	FrameTLM byte = 0x20
)

// Frame type and UID fields sit at absolute offsets of the event; the URL
// scheme and suffix are read from the advertising data.
const (
	eddystoneFrameTypeAt = 25
	uidNamespaceAt       = 27
	uidInstanceAt        = 37
	urlSchemeAt          = 23
	urlSuffixAt          = 24
)

// DecodeEddystone dispatches on the frame type byte. Unrecognised frame types
// decode to Unknown.
func DecodeEddystone(f hci.Frame) (Payload, error) {
	frameType, ok := f.AtAbsolute(eddystoneFrameTypeAt)
	if !ok {
		return nil, errors.Wrapf(ErrTruncatedPayload, "eddystone frame type at offset %d, event has %d bytes", eddystoneFrameTypeAt, f.Len())
	}
	switch frameType {
	case FrameUID:
		return decodeUID(f)
	case FrameURL:
		return decodeURL(f)
	case FrameTLM:
		tlm, _ := f.Absolute(eddystoneFrameTypeAt, f.Len()-1)
		return EddystoneTLM{Frame: tlm}, nil
	default:
		return Unknown{Raw: f.Bytes()}, nil
	}
}

func decodeUID(f hci.Frame) (Payload, error) {
	namespace, ok := f.Absolute(uidNamespaceAt, uidInstanceAt)
	if !ok {
		return nil, errors.Wrap(ErrTruncatedPayload, "eddystone uid namespace")
	}
	instance, ok := f.Absolute(uidInstanceAt, uidInstanceAt+6)
	if !ok {
		return nil, errors.Wrap(ErrTruncatedPayload, "eddystone uid instance")
	}
	var p EddystoneUID
	copy(p.Namespace[:], namespace)
	copy(p.Instance[:], instance)
	return p, nil
}

func decodeURL(f hci.Frame) (Payload, error) {
	code, ok := f.AtAdvertisingData(urlSchemeAt)
	if !ok {
		return nil, errors.Wrap(ErrTruncatedPayload, "eddystone url scheme")
	}
	scheme := Scheme(code)
	if !scheme.valid() {
		return nil, errors.Wrapf(ErrUnknownScheme, "scheme 0x%02x", code)
	}
	data := f.AdvertisingData()
	if len(data) < urlSuffixAt+1 {
		return nil, errors.Wrap(ErrTruncatedPayload, "eddystone url suffix")
	}
	// the trailing byte is the RSSI
	suffix := data[urlSuffixAt : len(data)-1]
	if !utf8.Valid(suffix) {
		return nil, errors.Wrapf(ErrInvalidURLEncoding, "suffix % x", suffix)
	}
	return EddystoneURL{Scheme: scheme, Suffix: string(suffix)}, nil
}
