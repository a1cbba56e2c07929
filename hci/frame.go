package hci

// Frame is a read-only view of one advertising report positioned in its event.
//
// Fields are addressed on three bases:
//   - absolute: from the start of the event, as seen by the first report
//   - advertising data: from the parameters that follow the sub-event byte
//   - end: backwards from the report's final byte, the RSSI
//
// Every accessor reports ok=false instead of reading out of range.
type Frame struct {
	buf   []byte
	start int // buf index of absolute offset 0
	end   int // one past the last byte
}

// NewFrame frames a whole event buffer as a single report, without validating it.
func NewFrame(event []byte) Frame {
	return Frame{buf: event, end: len(event)}
}

// Len is the number of bytes addressable from absolute offset 0.
func (f Frame) Len() int {
	return f.end - f.start
}

// Bytes returns the framed bytes from absolute offset 0 to the end.
func (f Frame) Bytes() []byte {
	return f.buf[f.start:f.end]
}

// Absolute returns bytes [from, to) counted from the start of the event.
func (f Frame) Absolute(from, to int) ([]byte, bool) {
	if from < 0 || to < from || to > f.Len() {
		return nil, false
	}
	return f.buf[f.start+from : f.start+to], true
}

// AtAbsolute returns the byte at an absolute offset.
func (f Frame) AtAbsolute(i int) (byte, bool) {
	b, ok := f.Absolute(i, i+1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

// AdvertisingData returns the advertising-data sub-buffer, nil if the frame is too short.
func (f Frame) AdvertisingData() []byte {
	b, _ := f.Absolute(advertisingDataOffset, f.Len())
	return b
}

// AdvertisingDataRange returns bytes [from, to) of the advertising-data sub-buffer.
func (f Frame) AdvertisingDataRange(from, to int) ([]byte, bool) {
	if from < 0 {
		return nil, false
	}
	return f.Absolute(advertisingDataOffset+from, advertisingDataOffset+to)
}

// AtAdvertisingData returns the byte at an advertising-data offset.
func (f Frame) AtAdvertisingData(i int) (byte, bool) {
	b, ok := f.AdvertisingDataRange(i, i+1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

// FromEnd returns the bytes between from and to bytes before the end,
// i.e. the slice [-from:-to]. to == 0 runs through the last byte.
func (f Frame) FromEnd(from, to int) ([]byte, bool) {
	if to < 0 || from < to || from > f.Len() {
		return nil, false
	}
	return f.buf[f.end-from : f.end-to], true
}

// Last returns the final byte of the frame.
func (f Frame) Last() (byte, bool) {
	b, ok := f.FromEnd(1, 0)
	if !ok {
		return 0, false
	}
	return b[0], true
}
