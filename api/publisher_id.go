package api

import "strconv"

// PublisherIDType is the integer width a publisher id was read with.
type PublisherIDType string

const (
	PublisherIDUInt16 PublisherIDType = "UInt16"
	PublisherIDUInt64 PublisherIDType = "UInt64"
)

// PublisherID is a 16- or 64-bit publisher identifier. The width is whatever
// the remote value carried; it is never inferred from the magnitude.
type PublisherID struct {
	Type  PublisherIDType `json:"type" yaml:"type"`
	Value uint64          `json:"value" yaml:"value"`
}

// PublisherIDFromValue builds a PublisherID from a read value.
// Byte and UInt16 are narrow; UInt32 and UInt64 are wide.
func PublisherIDFromValue(v any) (PublisherID, bool) {
	switch t := v.(type) {
	case uint8:
		return PublisherID{Type: PublisherIDUInt16, Value: uint64(t)}, true
	case uint16:
		return PublisherID{Type: PublisherIDUInt16, Value: uint64(t)}, true
	case uint32:
		return PublisherID{Type: PublisherIDUInt64, Value: uint64(t)}, true
	case uint64:
		return PublisherID{Type: PublisherIDUInt64, Value: t}, true
	default:
		return PublisherID{}, false
	}
}

// Narrow reports whether the id was read as a 16-bit value.
func (p PublisherID) Narrow() bool {
	return p.Type == PublisherIDUInt16
}

func (p PublisherID) String() string {
	return strconv.FormatUint(p.Value, 10) + " (" + string(p.Type) + ")"
}
