// Package hci splits raw HCI LE Meta events into advertising reports.
package hci

import "github.com/pkg/errors"

// ErrTruncatedEvent reports a buffer shorter than the HCI event header.
var ErrTruncatedEvent = errors.New("hci: truncated event")

// Report is one advertising report of an LE Advertising Report event.
type Report struct {
	Index       int
	EventType   uint8
	AddressType uint8

	event []byte
	frame Frame
	own   []byte
}

// Frame returns the offset accessors for this report.
func (r Report) Frame() Frame { return r.frame }

// Event returns the whole event the report came from.
func (r Report) Event() []byte { return r.event }

// Bytes returns the report's own bytes, event type through RSSI.
func (r Report) Bytes() []byte { return r.own }

// Reports walks the advertising reports of one event. It makes a single pass
// and cannot be restarted.
type Reports struct {
	event     []byte
	offset    int
	index     int
	remaining int
	cur       Report
}

// Split validates the event envelope and returns an iterator over its
// advertising reports. Events other than LE Advertising Reports yield no
// reports and no error.
func Split(event []byte) (*Reports, error) {
	if len(event) < headerLen {
		return nil, errors.Wrapf(ErrTruncatedEvent, "%d bytes, header needs %d", len(event), headerLen)
	}
	it := &Reports{event: event, offset: metaHeaderLen}
	if event[offsetEventCode] != EventLEMeta || len(event) < metaHeaderLen {
		return it, nil
	}
	if event[offsetSubevent] != SubeventAdvertisingReport {
		return it, nil
	}
	it.remaining = int(event[offsetNumReports])
	return it, nil
}

// Next advances to the next report. It stops early when the announced report
// count does not fit in the buffer.
func (it *Reports) Next() bool {
	if it.remaining <= 0 {
		return false
	}
	rest := len(it.event) - it.offset
	if rest < reportFixedLen {
		it.remaining = 0
		return false
	}
	size := reportFixedLen + int(it.event[it.offset+reportOffsetDataLen])
	if size > rest {
		it.remaining = 0
		return false
	}
	end := it.offset + size
	if it.remaining == 1 {
		// the last report is anchored to the end of the transmission
		end = len(it.event)
	}
	it.cur = Report{
		Index:       it.index,
		EventType:   it.event[it.offset+reportOffsetEventType],
		AddressType: it.event[it.offset+reportOffsetAddressType],
		event:       it.event,
		frame:       Frame{buf: it.event, start: it.offset - metaHeaderLen, end: end},
		own:         it.event[it.offset:end],
	}
	it.offset += size
	it.index++
	it.remaining--
	return true
}

// Report returns the report Next advanced to.
func (it *Reports) Report() Report {
	return it.cur
}

// Collect drains the iterator.
func (it *Reports) Collect() []Report {
	var out []Report
	for it.Next() {
		out = append(out, it.Report())
	}
	return out
}
