package enums

import "fmt"

// UnitStatus represents the lifecycle status of a serialized product unit.
type UnitStatus string

const (
	UnitStatusAvailable UnitStatus = "available"
	UnitStatusSold      UnitStatus = "sold"
	UnitStatusReserved  UnitStatus = "reserved"
	UnitStatusDefective UnitStatus = "defective"
	UnitStatusReturned  UnitStatus = "returned"
)

var validUnitStatuses = []UnitStatus{
	UnitStatusAvailable,
	UnitStatusSold,
	UnitStatusReserved,
	UnitStatusDefective,
	UnitStatusReturned,
}

// IsValid reports whether the value is a known UnitStatus.
func (s UnitStatus) IsValid() bool {
	for _, candidate := range validUnitStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseUnitStatus converts raw input into a UnitStatus.
func ParseUnitStatus(value string) (UnitStatus, error) {
	for _, candidate := range validUnitStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit status %q", value)
}

// StockChannel identifies which sales channel a unit is available through.
type StockChannel string

const (
	StockChannelOnline  StockChannel = "online"
	StockChannelOffline StockChannel = "offline"
	StockChannelBoth    StockChannel = "both"
)

var validStockChannels = []StockChannel{
	StockChannelOnline,
	StockChannelOffline,
	StockChannelBoth,
}

// IsValid reports whether the value is a known StockChannel.
func (c StockChannel) IsValid() bool {
	for _, candidate := range validStockChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// CountsOffline reports whether units on this channel contribute to the
// offline stock counter.
func (c StockChannel) CountsOffline() bool {
	return c == StockChannelOffline || c == StockChannelBoth
}

// ParseStockChannel converts raw input into a StockChannel.
func ParseStockChannel(value string) (StockChannel, error) {
	for _, candidate := range validStockChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock channel %q", value)
}
