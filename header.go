package ocamlrep

// Built-in block tags. Tags at or above NoScanTag mark blocks whose fields
// the collector does not scan.
const (
	LazyTag        uint8 = 246
	ClosureTag     uint8 = 247
	ObjectTag      uint8 = 248
	InfixTag       uint8 = 249
	ForwardTag     uint8 = 250
	NoScanTag      uint8 = 251
	AbstractTag    uint8 = 251
	StringTag      uint8 = 252
	DoubleTag      uint8 = 253
	DoubleArrayTag uint8 = 254
	CustomTag      uint8 = 255
)

// Color is the pair of collector mark bits stored in a header.
type Color uint8

const (
	ColorWhite Color = 0
	ColorGray  Color = 1
	ColorBlue  Color = 2
	ColorBlack Color = 3

	// ColorMarked is the color of blocks allocated directly into the major heap.
	ColorMarked = ColorBlack
)

const (
	headerTagBits   = 8
	headerColorBits = 2
	headerSizeShift = headerTagBits + headerColorBits
)

// Header is the word preceding a block's fields: size<<10 | color<<8 | tag.
type Header uintptr

// NewHeader returns a white header.
func NewHeader(size int, tag uint8) Header {
	return NewHeaderWithColor(size, tag, ColorWhite)
}

func NewHeaderWithColor(size int, tag uint8, color Color) Header {
	return Header(uintptr(size)<<headerSizeShift | uintptr(color&3)<<headerTagBits | uintptr(tag))
}

// Size returns the number of fields.
func (h Header) Size() int {
	return int(uintptr(h) >> headerSizeShift)
}

func (h Header) Tag() uint8 {
	return uint8(h)
}

func (h Header) Color() Color {
	return Color(uintptr(h)>>headerTagBits) & 3
}
