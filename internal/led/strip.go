package led

import "github.com/coreman2200/funtimes-treelights/internal/ledcolor"

// Strip is the hardware side of the controller. Pixel writes are staged by
// SetPixelColor and latched together by Show.
type Strip interface {
	Begin() error
	// SetPixelColor stages a packed GRB word for index i.
	SetPixelColor(i int, c uint32)
	Show() error
	// Close releases the device.
	Close() error
}

// Channel offsets within the packed wire word.
const (
	GreenOffset = 0x10
	RedOffset   = 0x08
	BlueOffset  = 0x0
)

// Pack produces the GRB word g<<16 | r<<8 | b.
func Pack(c ledcolor.RGB) uint32 {
	return uint32(c.G)<<GreenOffset | uint32(c.R)<<RedOffset | uint32(c.B)<<BlueOffset
}

// Unpack inverts Pack, ignoring any bits above the green channel.
func Unpack(w uint32) ledcolor.RGB {
	return ledcolor.RGB{
		R: uint8(w >> RedOffset),
		G: uint8(w >> GreenOffset),
		B: uint8(w >> BlueOffset),
	}
}
