//go:build linux

package socket

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/trambelus/Blueview/hci"
	"golang.org/x/sys/unix"
)

// from <bluetooth/hci.h>
const (
	solHCI        = 0
	hciFilterOpt  = 2
	hciChannelRaw = 0
)

// HCISocket is a raw HCI socket bound to a local controller. Reads return one
// LE Meta event each.
type HCISocket struct {
	fd   int
	dev  int
	opts ScanOptions

	rmu    sync.Mutex
	wmu    sync.Mutex
	closed bool
}

// OpenHCI opens controller dev (hciN). A negative dev selects hci0.
func OpenHCI(dev int, opts ScanOptions) (*HCISocket, error) {
	if dev < 0 {
		dev = 0
	}
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.BTPROTO_HCI)
	if err != nil {
		return nil, errors.Wrap(err, "can't create hci socket")
	}
	if err := unix.Bind(fd, &unix.SockaddrHCI{Dev: uint16(dev), Channel: hciChannelRaw}); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "can't bind hci%d", dev)
	}
	s := &HCISocket{fd: fd, dev: dev, opts: opts}
	if err := s.setReadTimeout(opts.ReadTimeout); err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := s.setFilter(advertisingFilter()); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return s, nil
}

func (s *HCISocket) setFilter(f filter) error {
	if err := unix.SetsockoptString(s.fd, solHCI, hciFilterOpt, string(f.bytes())); err != nil {
		return errors.Wrap(err, "can't set hci filter")
	}
	return nil
}

func (s *HCISocket) setReadTimeout(d time.Duration) error {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	if err := unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return errors.Wrap(err, "can't set read timeout")
	}
	return nil
}

func (s *HCISocket) Read(p []byte) (int, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()
	for {
		n, err := unix.Read(s.fd, p)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			return 0, ErrReadTimeout
		case err != nil:
			return 0, errors.Wrapf(err, "read hci%d", s.dev)
		}
		return n, nil
	}
}

func (s *HCISocket) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	n, err := unix.Write(s.fd, p)
	if err != nil {
		return n, errors.Wrapf(err, "write hci%d", s.dev)
	}
	return n, nil
}

// send issues a command and waits for its completion, like hci_send_req.
func (s *HCISocket) send(opcode uint16, params ...byte) error {
	s.rmu.Lock()
	defer s.rmu.Unlock()
	if err := s.setFilter(commandFilter(opcode)); err != nil {
		return err
	}
	defer s.setFilter(advertisingFilter())

	if _, err := s.Write(hci.Command(opcode, params...)); err != nil {
		return err
	}
	buf := make([]byte, Buflen)
	deadline := time.Now().Add(s.opts.CommandTimeout)
	for time.Now().Before(deadline) {
		n, err := unix.Read(s.fd, buf)
		if err == unix.EINTR || err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "read hci%d", s.dev)
		}
		if status, ok := commandReply(buf[:n], opcode); ok {
			if status != 0 {
				return errors.Errorf("hci%d: command 0x%04x failed with status 0x%02x", s.dev, opcode, status)
			}
			return nil
		}
	}
	return errors.Errorf("hci%d: command 0x%04x timed out", s.dev, opcode)
}

// Reset issues HCI_Reset.
func (s *HCISocket) Reset() error {
	return s.send(opReset)
}

// StartScan sets the scan parameters and enables scanning. If the parameters
// are refused the controller is reset and the parameters retried once.
func (s *HCISocket) StartScan() error {
	_ = s.send(opSetScanEnable, scanEnable(false, false)...)
	if err := s.send(opSetScanParameters, scanParameters(s.opts)...); err != nil {
		logger.Warn("set scan parameters failed, resetting controller", "dev", s.dev, "err", err)
		if rerr := s.Reset(); rerr != nil {
			return errors.Wrap(rerr, "reset after failed scan parameters")
		}
		if err := s.send(opSetScanParameters, scanParameters(s.opts)...); err != nil {
			return errors.Wrap(err, "could not set hci scan parameters")
		}
	}
	if err := s.send(opSetScanEnable, scanEnable(true, s.opts.FilterDuplicates)...); err != nil {
		return errors.Wrap(err, "could not enable scanning")
	}
	logger.Info("scanning", "dev", s.dev, "active", s.opts.Active)
	return nil
}

// StopScan disables scanning.
func (s *HCISocket) StopScan() error {
	return s.send(opSetScanEnable, scanEnable(false, false)...)
}

// Close stops scanning and releases the socket.
func (s *HCISocket) Close() error {
	s.wmu.Lock()
	if s.closed {
		s.wmu.Unlock()
		return nil
	}
	s.closed = true
	s.wmu.Unlock()
	// best effort, a blocked Read holds rmu until its timeout
	_, _ = s.Write(hci.Command(opSetScanEnable, scanEnable(false, false)...))
	return unix.Close(s.fd)
}
