package cmd

import (
	"encoding/binary"
	"math/bits"

	"github.com/bnema/xnested/internal/hostx"
)

// barColors are the classic colour bars as 8-bit RGB.
var barColors = [][3]uint8{
	{0xc0, 0xc0, 0xc0},
	{0xc0, 0xc0, 0x00},
	{0x00, 0xc0, 0xc0},
	{0x00, 0xc0, 0x00},
	{0xc0, 0x00, 0xc0},
	{0xc0, 0x00, 0x00},
	{0x00, 0x00, 0xc0},
}

// pattern paints scrolling colour bars into a ZPixmap frame buffer.
type pattern struct {
	width, height int
	stride        int
	bpp           int
	masks         [3]uint32
	// order is the host image byte order; nil means LSBFirst.
	order binary.ByteOrder
	phase int
}

func byteOrder(imageByteOrder uint8) binary.ByteOrder {
	if imageByteOrder == hostx.MSBFirst {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// scale places an 8-bit channel value into mask.
func scale(v uint8, mask uint32) uint32 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	c := uint32(v)
	if width < 8 {
		c >>= 8 - width
	} else {
		c <<= width - 8
	}
	return (c << shift) & mask
}

func (p *pattern) pixel(c [3]uint8) uint32 {
	return scale(c[0], p.masks[0]) | scale(c[1], p.masks[1]) | scale(c[2], p.masks[2])
}

// paint draws one frame and advances the bars by one step.
func (p *pattern) paint(buf []byte) {
	if p.width <= 0 || len(barColors) == 0 {
		return
	}
	bytesPP := p.bpp / 8
	if bytesPP == 0 || p.stride*p.height > len(buf) {
		return
	}
	barWidth := (p.width + len(barColors) - 1) / len(barColors)
	order := p.order
	if order == nil {
		order = binary.LittleEndian
	}
	msb := order == binary.BigEndian

	row := make([]byte, p.width*bytesPP)
	for x := 0; x < p.width; x++ {
		bar := ((x + p.phase) / barWidth) % len(barColors)
		px := p.pixel(barColors[bar])
		b := row[x*bytesPP:]
		switch bytesPP {
		case 4:
			order.PutUint32(b, px)
		case 3:
			if msb {
				b[0], b[1], b[2] = byte(px>>16), byte(px>>8), byte(px)
			} else {
				b[0], b[1], b[2] = byte(px), byte(px>>8), byte(px>>16)
			}
		case 2:
			order.PutUint16(b, uint16(px))
		default:
			b[0] = byte(px)
		}
	}
	for y := 0; y < p.height; y++ {
		copy(buf[y*p.stride:], row)
	}
	p.phase = (p.phase + 4) % (barWidth * len(barColors))
}
