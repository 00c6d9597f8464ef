package watch

import (
	"encoding/binary"
	"fmt"
)

// Type tags a notification with the kind of event it describes.
// Values must stay below MaxTypes so they fit the filter's type bitmap.
type Type uint32

// TypeMeta is reserved for notifications about the notification mechanism
// itself. Watched subsystems should define their own types starting at 1.
const TypeMeta Type = 0

// MaxTypes bounds the notification type space.
const MaxTypes = 64

// Info word layout. The low byte is reserved for the id of the watch a
// record was delivered through, the high half carries the total encoded
// record length, and the byte in between is free for type-specific flags.
const (
	InfoIDMask      uint32 = 0x000000ff
	InfoFlagsMask   uint32 = 0x0000ff00
	InfoLengthMask  uint32 = 0xffff0000
	InfoLengthShift        = 16
)

// headerSize is the fixed part of an encoded record: one word packing type
// and subtype, followed by the info word.
const headerSize = 8

// MaxPayload is the longest trailing payload the info length field can describe.
const MaxPayload = int(InfoLengthMask>>InfoLengthShift) - headerSize

// Record is a single notification. The producer constructs it and it is
// treated as immutable from then on; the delivery path stamps the reserved
// id and length bits of the info word on the encoded copy only.
type Record struct {
	Type    Type   `json:"type"`
	Subtype uint8  `json:"subtype"`
	Info    uint32 `json:"info"`
	Data    []byte `json:"data,omitempty"`
}

// EncodedLen reports the number of bytes the record occupies in a note slot.
func (r *Record) EncodedLen() int { return headerSize + len(r.Data) }

// Validate checks that the record can be encoded at all.
func (r *Record) Validate() error {
	if r.Type >= MaxTypes {
		return fmt.Errorf("%w: type %d out of range", ErrInvalidRecord, r.Type)
	}
	if len(r.Data) > MaxPayload {
		return fmt.Errorf("%w: payload of %d bytes exceeds %d", ErrRecordTooLarge, len(r.Data), MaxPayload)
	}
	return nil
}

// WatchID extracts the stamped watch id from a delivered record.
func (r *Record) WatchID() uint8 { return uint8(r.Info & InfoIDMask) }

// encode writes the wire form into dst, stamping the low byte of the watch
// id into the reserved info bits and the total length into the high bits.
// It returns the number of bytes written.
func (r *Record) encode(dst []byte, watchID uint64) (int, error) {
	total := r.EncodedLen()
	if total > len(dst) {
		return 0, ErrRecordTooLarge
	}
	info := r.Info &^ (InfoIDMask | InfoLengthMask)
	info |= uint32(watchID) & InfoIDMask
	info |= uint32(total) << InfoLengthShift
	binary.LittleEndian.PutUint32(dst[0:4], uint32(r.Type)&0x00ffffff|uint32(r.Subtype)<<24)
	binary.LittleEndian.PutUint32(dst[4:8], info)
	copy(dst[headerSize:], r.Data)
	return total, nil
}

// Decode parses the wire form produced by the delivery path. The payload is
// copied out of b, so the caller may recycle the slot buffer afterwards.
func Decode(b []byte) (Record, error) {
	if len(b) < headerSize {
		return Record{}, fmt.Errorf("%w: truncated header", ErrInvalidRecord)
	}
	word := binary.LittleEndian.Uint32(b[0:4])
	info := binary.LittleEndian.Uint32(b[4:8])
	total := int(info >> InfoLengthShift)
	if total < headerSize || total > len(b) {
		return Record{}, fmt.Errorf("%w: length field %d out of bounds", ErrInvalidRecord, total)
	}
	r := Record{
		Type:    Type(word & 0x00ffffff),
		Subtype: uint8(word >> 24),
		Info:    info,
	}
	if total > headerSize {
		r.Data = append([]byte(nil), b[headerSize:total]...)
	}
	return r, nil
}
