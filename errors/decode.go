package errors

import "fmt"

// Constructors for the decode taxonomy. Messages follow the shape
// "expected X, but got Y" so they read the same across kinds.

// BadUTF8 reports a byte string that is not valid UTF-8.
// validUpTo is the length of the longest valid prefix.
func BadUTF8(data []byte, validUpTo int) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindBadUTF8,
		Actual: int64(validUpTo),
		Detail: fmt.Sprintf("invalid UTF-8 after %d valid bytes: %x", validUpTo, preview),
	}
}

// BlockTagOutOfRange reports a block tag above the largest tag of a sum type.
func BlockTagOutOfRange(maxTag, actual uint8) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindBlockTagOutOfRange,
		Max:    int64(maxTag),
		Actual: int64(actual),
		Detail: fmt.Sprintf("expected tag value <= %d, but got %d", maxTag, actual),
	}
}

// InField attributes a nested decode failure to field idx of the enclosing block.
func InField(idx int, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindErrorInField,
		Field:  idx,
		Cause:  cause,
		Detail: fmt.Sprintf("failed to convert field %d", idx),
	}
}

// ExpectedBlock reports an immediate integer where a block was required.
func ExpectedBlock(n int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindExpectedBlock,
		Actual: int64(n),
		Detail: fmt.Sprintf("expected block, but got integer value %d", n),
	}
}

// ExpectedBlockTag reports a block with the wrong tag.
func ExpectedBlockTag(expected, actual uint8) *Error {
	return &Error{
		Phase:    PhaseDecode,
		Kind:     KindExpectedBlockTag,
		Expected: int64(expected),
		Actual:   int64(actual),
		Detail:   fmt.Sprintf("expected block with tag %d, but got %d", expected, actual),
	}
}

// ExpectedBool reports an immediate other than 0 or 1 where a bool was required.
func ExpectedBool(n int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindExpectedBool,
		Actual: int64(n),
		Detail: fmt.Sprintf("expected bool, but got %d", n),
	}
}

// ExpectedChar reports an immediate outside 0..255 where a char was required.
func ExpectedChar(n int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindExpectedChar,
		Actual: int64(n),
		Detail: fmt.Sprintf("expected char, but got %d", n),
	}
}

// ExpectedInt reports a block pointer where an immediate integer was required.
func ExpectedInt(bits uintptr) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindExpectedInt,
		Actual: int64(bits),
		Detail: fmt.Sprintf("expected integer value, but got block pointer 0x%x", bits),
	}
}

// Expected63BitInt reports an integer whose two most significant bits differ.
func Expected63BitInt(n int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindExpected63BitInt,
		Actual: int64(n),
		Detail: fmt.Sprintf("expected integer value between -2^(n-2) and 2^(n-2)-1, where n is the number of bits in int, but got %d", n),
	}
}

// ExpectedUnit reports a non-zero immediate where unit or an empty list was required.
func ExpectedUnit(n int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindExpectedUnit,
		Actual: int64(n),
		Detail: fmt.Sprintf("expected (), but got %d", n),
	}
}

// ExpectedZeroTag reports a tuple-like block whose tag is not 0.
func ExpectedZeroTag(tag uint8) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindExpectedZeroTag,
		Actual: int64(tag),
		Detail: fmt.Sprintf("expected block with tag 0 (tuple, record, cons cell, etc), but got tag value %d", tag),
	}
}

// IntOutOfRange reports an integer that does not fit the destination type.
func IntOutOfRange(n int64, goType string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindIntOutOfRange,
		GoType: goType,
		Actual: n,
		Detail: fmt.Sprintf("integer value %d out of range", n),
	}
}

// NullaryVariantTagOutOfRange reports an immediate above the largest nullary variant.
func NullaryVariantTagOutOfRange(maxTag, actual int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindNullaryVariantTagOutOfRange,
		Max:    int64(maxTag),
		Actual: int64(actual),
		Detail: fmt.Sprintf("expected nullary variant tag, where 0 <= tag <= %d, but got %d", maxTag, actual),
	}
}

// WrongBlockSize reports a block with an unexpected number of fields.
func WrongBlockSize(expected, actual int) *Error {
	return &Error{
		Phase:    PhaseDecode,
		Kind:     KindWrongBlockSize,
		Expected: int64(expected),
		Actual:   int64(actual),
		Detail:   fmt.Sprintf("expected block of size %d, but got size %d", expected, actual),
	}
}

// UnexpectedCustomOps reports a custom block whose operations pointer is not the expected one.
func UnexpectedCustomOps(expected, actual uintptr) *Error {
	return &Error{
		Phase:    PhaseDecode,
		Kind:     KindUnexpectedCustomOps,
		Expected: int64(expected),
		Actual:   int64(actual),
		Detail:   fmt.Sprintf("expected custom operations struct address 0x%x, but got address 0x%x", expected, actual),
	}
}
