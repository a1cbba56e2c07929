// Package capture stores raw HCI events in pcap files so scans can be replayed.
package capture

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"
)

// Link types carrying H4 framed HCI packets.
const (
	LinkTypeBluetoothHCIH4         = layers.LinkType(187)
	LinkTypeBluetoothHCIH4WithPHDR = layers.LinkType(201)
)

const (
	snapLen     = 1024
	phdrLen     = 4
	dirReceived = 1
	dirSent     = 0
)

// Writer appends events to a pcap stream with the direction pseudo header.
type Writer struct {
	w   *pcapgo.Writer
	now func() time.Time
}

// NewWriter writes the pcap file header to w.
func NewWriter(w io.Writer) (*Writer, error) {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(snapLen, LinkTypeBluetoothHCIH4WithPHDR); err != nil {
		return nil, errors.Wrap(err, "write pcap header")
	}
	return &Writer{w: pw, now: time.Now}, nil
}

// WriteEvent records an event received from the controller.
func (w *Writer) WriteEvent(event []byte) error {
	return w.write(event, dirReceived)
}

// WriteCommand records a packet sent to the controller.
func (w *Writer) WriteCommand(cmd []byte) error {
	return w.write(cmd, dirSent)
}

func (w *Writer) write(p []byte, dir uint32) error {
	buf := make([]byte, phdrLen+len(p))
	binary.BigEndian.PutUint32(buf, dir)
	copy(buf[phdrLen:], p)
	ci := gopacket.CaptureInfo{Timestamp: w.now(), CaptureLength: len(buf), Length: len(buf)}
	if err := w.w.WritePacket(ci, buf); err != nil {
		return errors.Wrap(err, "write pcap packet")
	}
	return nil
}

// Reader replays the received events of a pcap stream. Sent packets are skipped.
type Reader struct {
	r    *pcapgo.Reader
	phdr bool
	rc   io.Closer
}

// NewReader reads the pcap file header from r. If r is an io.Closer it is
// closed by Close.
func NewReader(r io.Reader) (*Reader, error) {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "read pcap header")
	}
	rd := &Reader{r: pr}
	switch pr.LinkType() {
	case LinkTypeBluetoothHCIH4WithPHDR:
		rd.phdr = true
	case LinkTypeBluetoothHCIH4:
	default:
		return nil, errors.Errorf("pcap link type %d does not carry hci packets", pr.LinkType())
	}
	if c, ok := r.(io.Closer); ok {
		rd.rc = c
	}
	return rd, nil
}

// Read copies the next event into p. It returns io.EOF at the end of the stream.
func (r *Reader) Read(p []byte) (int, error) {
	for {
		data, _, err := r.r.ReadPacketData()
		if err != nil {
			return 0, err
		}
		if r.phdr {
			if len(data) < phdrLen {
				continue
			}
			if binary.BigEndian.Uint32(data) != dirReceived {
				continue
			}
			data = data[phdrLen:]
		}
		return copy(p, data), nil
	}
}

func (r *Reader) Close() error {
	if r.rc == nil {
		return nil
	}
	return r.rc.Close()
}
