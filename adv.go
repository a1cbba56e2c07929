package ble

import "strings"

// AdvFilter returns true if the advertisement matches specified condition.
type AdvFilter func(a Advertisement) bool

// Advertisement is a decoded advertising report.
type Advertisement interface {
	Address() Addr
	Manufacturer() string
	SignalStrength() int
	Raw() []byte
}

// MatchManufacturer accepts advertisements from any of the named manufacturers.
func MatchManufacturer(names ...string) AdvFilter {
	return func(a Advertisement) bool {
		for _, n := range names {
			if strings.EqualFold(n, a.Manufacturer()) {
				return true
			}
		}
		return false
	}
}

// MinRSSI accepts advertisements received at or above rssi dBm.
func MinRSSI(rssi int) AdvFilter {
	return func(a Advertisement) bool {
		return a.SignalStrength() >= rssi
	}
}

// MatchAddr accepts advertisements from one of the given addresses.
func MatchAddr(addrs ...Addr) AdvFilter {
	return func(a Advertisement) bool {
		for _, addr := range addrs {
			if a.Address() == addr {
				return true
			}
		}
		return false
	}
}

// All combines filters; an empty list accepts everything.
func All(filters ...AdvFilter) AdvFilter {
	return func(a Advertisement) bool {
		for _, f := range filters {
			if !f(a) {
				return false
			}
		}
		return true
	}
}
