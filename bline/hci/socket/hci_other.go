//go:build !linux

package socket

import "github.com/pkg/errors"

// HCISocket is only available on Linux.
type HCISocket struct{}

// OpenHCI fails outside Linux.
func OpenHCI(dev int, opts ScanOptions) (*HCISocket, error) {
	return nil, errors.New("socket: raw hci sockets need linux")
}

func (s *HCISocket) Read(p []byte) (int, error)  { return 0, errors.New("socket: unsupported") }
func (s *HCISocket) Write(p []byte) (int, error) { return 0, errors.New("socket: unsupported") }
func (s *HCISocket) Reset() error                { return errors.New("socket: unsupported") }
func (s *HCISocket) StartScan() error            { return errors.New("socket: unsupported") }
func (s *HCISocket) StopScan() error             { return errors.New("socket: unsupported") }
func (s *HCISocket) Close() error                { return nil }
