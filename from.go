package ocamlrep

import (
	"math"
	"unicode/utf8"

	"github.com/wippyai/ocamlrep/errors"
)

// Shape checks shared by every decoder. Each returns the taxonomy error
// describing the first mismatch.

// ExpectInt returns the immediate payload of v.
func ExpectInt(v Value) (int, error) {
	n, ok := v.AsInt()
	if !ok {
		return 0, errors.ExpectedInt(v.Bits())
	}
	return n, nil
}

// ExpectUnit accepts only the immediate 0.
func ExpectUnit(v Value) error {
	n, err := ExpectInt(v)
	if err != nil {
		return err
	}
	if n != 0 {
		return errors.ExpectedUnit(n)
	}
	return nil
}

// ExpectBool decodes the immediates 0 and 1.
func ExpectBool(v Value) (bool, error) {
	n, err := ExpectInt(v)
	if err != nil {
		return false, err
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.ExpectedBool(n)
	}
}

// ExpectChar decodes an immediate in 0..255.
func ExpectChar(v Value) (byte, error) {
	n, err := ExpectInt(v)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > math.MaxUint8 {
		return 0, errors.ExpectedChar(n)
	}
	return byte(n), nil
}

// ExpectNullaryVariant decodes an immediate constructor index in 0..maxTag.
func ExpectNullaryVariant(v Value, maxTag int) (int, error) {
	n, err := ExpectInt(v)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > maxTag {
		return 0, errors.NullaryVariantTagOutOfRange(maxTag, n)
	}
	return n, nil
}

// ExpectBlock returns the block v points to.
func ExpectBlock(v Value) (Block, error) {
	b, ok := v.AsBlock()
	if !ok {
		n, _ := v.AsInt()
		return Block{}, errors.ExpectedBlock(n)
	}
	return b, nil
}

// ExpectBlockSize checks the field count of b.
func ExpectBlockSize(b Block, size int) error {
	if b.Size() != size {
		return errors.WrongBlockSize(size, b.Size())
	}
	return nil
}

// ExpectBlockTag checks the tag of b.
func ExpectBlockTag(b Block, tag uint8) error {
	if b.Tag() != tag {
		return errors.ExpectedBlockTag(tag, b.Tag())
	}
	return nil
}

// ExpectBlockWithSizeAndTag combines ExpectBlock, ExpectBlockSize and ExpectBlockTag.
func ExpectBlockWithSizeAndTag(v Value, size int, tag uint8) (Block, error) {
	b, err := ExpectBlock(v)
	if err != nil {
		return Block{}, err
	}
	if err := ExpectBlockSize(b, size); err != nil {
		return Block{}, err
	}
	if err := ExpectBlockTag(b, tag); err != nil {
		return Block{}, err
	}
	return b, nil
}

// ExpectTuple accepts a tag-0 block of exactly size fields.
func ExpectTuple(v Value, size int) (Block, error) {
	b, err := ExpectBlock(v)
	if err != nil {
		return Block{}, err
	}
	if err := ExpectBlockSize(b, size); err != nil {
		return Block{}, err
	}
	if b.Tag() != 0 {
		return Block{}, errors.ExpectedZeroTag(b.Tag())
	}
	return b, nil
}

// ExpectVariantBlock accepts a block whose tag is at most maxTag.
func ExpectVariantBlock(v Value, maxTag uint8) (Block, error) {
	b, err := ExpectBlock(v)
	if err != nil {
		return Block{}, err
	}
	if b.Tag() > maxTag {
		return Block{}, errors.BlockTagOutOfRange(maxTag, b.Tag())
	}
	return b, nil
}

// Field decodes field i of b with decode, attributing failures to i.
func Field[T any](b Block, i int, decode func(Value) (T, error)) (T, error) {
	v, err := decode(b.Field(i))
	if err != nil {
		var zero T
		return zero, errors.InField(i, err)
	}
	return v, nil
}

// BytesFromValue returns the content of a byte-string block, aliasing its memory.
func BytesFromValue(v Value) ([]byte, error) {
	b, err := ExpectBlock(v)
	if err != nil {
		return nil, err
	}
	if err := ExpectBlockTag(b, StringTag); err != nil {
		return nil, err
	}
	return b.StringBytes(), nil
}

// StringFromValue decodes a byte-string block holding UTF-8 text.
func StringFromValue(v Value) (string, error) {
	data, err := BytesFromValue(v)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errors.BadUTF8(data, ValidUTF8Prefix(data))
	}
	return string(data), nil
}

// FloatFromValue decodes a boxed double.
func FloatFromValue(v Value) (float64, error) {
	b, err := ExpectBlockWithSizeAndTag(v, 1, DoubleTag)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(b.Field(0))), nil
}

// ValidUTF8Prefix returns the length of the longest valid UTF-8 prefix of data.
func ValidUTF8Prefix(data []byte) int {
	n := 0
	for n < len(data) {
		r, size := utf8.DecodeRune(data[n:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		n += size
	}
	return n
}
