package payload

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ayusman/handcast/internal/gesture"
)

// Framed format layout:
//
//	offset 0  magic   "HC"
//	offset 2  version u8
//	offset 3  flags   u8 (bit 0: signal present)
//	offset 4  count   u16 big-endian, number of coordinate values
//	offset 6  count × int32 big-endian
//	          [signal int8]
const (
	FramedVersion    = 1
	framedHeaderSize = 6
	flagSignal       = 1 << 0
)

var framedMagic = [2]byte{'H', 'C'}

// FramedFormat is a versioned, length-prefixed binary encoding.
type FramedFormat struct{}

// Name implements Format.
func (FramedFormat) Name() string { return FormatFramed }

// Marshal implements Format.
func (FramedFormat) Marshal(p Payload) ([]byte, error) {
	if len(p.Coords) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d values exceed frame capacity", ErrLength, len(p.Coords))
	}

	size := framedHeaderSize + 4*len(p.Coords)
	var flags byte
	if p.Signal != nil {
		flags |= flagSignal
		size++
	}

	buf := make([]byte, framedHeaderSize, size)
	buf[0], buf[1] = framedMagic[0], framedMagic[1]
	buf[2] = FramedVersion
	buf[3] = flags
	binary.BigEndian.PutUint16(buf[4:6], uint16(len(p.Coords)))

	for _, v := range p.Coords {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("%w: value %d does not fit in int32", ErrLength, v)
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(int32(v)))
	}

	if p.Signal != nil {
		buf = append(buf, byte(int8(*p.Signal)))
	}

	return buf, nil
}

// Unmarshal implements Format.
func (FramedFormat) Unmarshal(data []byte) (Payload, error) {
	if len(data) < framedHeaderSize {
		return Payload{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrLength, len(data))
	}
	if data[0] != framedMagic[0] || data[1] != framedMagic[1] {
		return Payload{}, ErrMagic
	}
	if data[2] != FramedVersion {
		return Payload{}, fmt.Errorf("%w: %d", ErrVersion, data[2])
	}

	flags := data[3]
	count := int(binary.BigEndian.Uint16(data[4:6]))

	want := framedHeaderSize + 4*count
	if flags&flagSignal != 0 {
		want++
	}
	if len(data) != want {
		return Payload{}, fmt.Errorf("%w: got %d bytes, header declares %d", ErrLength, len(data), want)
	}

	p := Payload{Coords: make([]int, count)}
	body := data[framedHeaderSize:]
	for i := range p.Coords {
		p.Coords[i] = int(int32(binary.BigEndian.Uint32(body[i*4:])))
	}

	if flags&flagSignal != 0 {
		s := gesture.Signal(int8(data[len(data)-1]))
		p.Signal = &s
	}

	return p, nil
}
