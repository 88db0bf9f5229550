package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseCompile,
				Kind:   KindUnsupported,
				Path:   []string{"user", "address", "zip"},
				GoType: "chan int",
				Shape:  "record",
				Detail: "cannot convert",
			},
			contains: []string{"[compile]", "unsupported", "user.address.zip", "chan int", "record", "cannot convert"},
		},
		{
			name:     "minimal error",
			err:      &Error{Phase: PhaseDecode, Kind: KindExpectedBlock},
			contains: []string{"[decode]", "expected_block"},
		},
		{
			name:     "error in field",
			err:      InField(2, WrongBlockSize(3, 4)),
			contains: []string{"[decode]", "error_in_field", "field 2", "caused by", "size 3, but got size 4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseRuntime,
		Kind:  KindInstantiation,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := WrongBlockSize(2, 5)

	if !err.Is(&Error{Phase: PhaseDecode, Kind: KindWrongBlockSize}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseEncode, Kind: KindWrongBlockSize}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseDecode, Kind: KindExpectedBlock}) {
		t.Error("Is should not match different kind")
	}

	wrapped := InField(0, InField(1, err))
	if !errors.Is(wrapped, &Error{Phase: PhaseDecode, Kind: KindWrongBlockSize}) {
		t.Error("errors.Is should see through error_in_field chains")
	}
}

func TestError_RootAndFieldPath(t *testing.T) {
	inner := ExpectedBool(3)
	err := InField(4, InField(0, InField(2, inner)))

	if got := err.Root(); got != inner {
		t.Errorf("Root() = %v, want %v", got, inner)
	}
	path := err.FieldPath()
	want := []int{4, 0, 2}
	if len(path) != len(want) {
		t.Fatalf("FieldPath() = %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("FieldPath()[%d] = %d, want %d", i, path[i], want[i])
		}
	}

	if got := inner.Root(); got != inner {
		t.Error("Root of a leaf error should be itself")
	}
	if len(inner.FieldPath()) != 0 {
		t.Error("FieldPath of a leaf error should be empty")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseDecode, KindBlockTagOutOfRange).
		Path("user", "status").
		GoType("Status").
		Shape("variant").
		Value(42).
		Max(3, 7).
		Cause(cause).
		Detail("expected %s, got %s", "tag", "block").
		Build()

	if err.Phase != PhaseDecode {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseDecode)
	}
	if err.Kind != KindBlockTagOutOfRange {
		t.Errorf("Kind = %v, want %v", err.Kind, KindBlockTagOutOfRange)
	}
	if len(err.Path) != 2 || err.Path[0] != "user" || err.Path[1] != "status" {
		t.Errorf("Path = %v, want [user status]", err.Path)
	}
	if err.GoType != "Status" || err.Shape != "variant" {
		t.Errorf("GoType=%v Shape=%v", err.GoType, err.Shape)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if err.Max != 3 || err.Actual != 7 {
		t.Errorf("Max=%d Actual=%d, want 3 and 7", err.Max, err.Actual)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected tag, got block" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestDecodeConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		kind     Kind
		expected int64
		actual   int64
		max      int64
		detail   string
	}{
		{"bad utf8", BadUTF8([]byte{'a', 0xff}, 1), KindBadUTF8, 0, 1, 0, "after 1 valid bytes"},
		{"block tag out of range", BlockTagOutOfRange(1, 4), KindBlockTagOutOfRange, 0, 4, 1, "tag value <= 1, but got 4"},
		{"expected block", ExpectedBlock(-3), KindExpectedBlock, 0, -3, 0, "integer value -3"},
		{"expected block tag", ExpectedBlockTag(252, 0), KindExpectedBlockTag, 252, 0, 0, "tag 252, but got 0"},
		{"expected bool", ExpectedBool(2), KindExpectedBool, 0, 2, 0, "expected bool, but got 2"},
		{"expected char", ExpectedChar(300), KindExpectedChar, 0, 300, 0, "expected char, but got 300"},
		{"expected int", ExpectedInt(0x1000), KindExpectedInt, 0, 0x1000, 0, "block pointer 0x1000"},
		{"expected 63 bit int", Expected63BitInt(1 << 62), KindExpected63BitInt, 0, 1 << 62, 0, "2^(n-2)"},
		{"expected unit", ExpectedUnit(1), KindExpectedUnit, 0, 1, 0, "expected (), but got 1"},
		{"expected zero tag", ExpectedZeroTag(3), KindExpectedZeroTag, 0, 3, 0, "got tag value 3"},
		{"int out of range", IntOutOfRange(300, "uint8"), KindIntOutOfRange, 0, 300, 0, "300 out of range"},
		{"nullary out of range", NullaryVariantTagOutOfRange(2, 5), KindNullaryVariantTagOutOfRange, 0, 5, 2, "0 <= tag <= 2, but got 5"},
		{"wrong block size", WrongBlockSize(5, 4), KindWrongBlockSize, 5, 4, 0, "size 5, but got size 4"},
		{"unexpected custom ops", UnexpectedCustomOps(0x10, 0x20), KindUnexpectedCustomOps, 0x10, 0x20, 0, "0x10, but got address 0x20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != PhaseDecode {
				t.Errorf("Phase = %v, want decode", tt.err.Phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Expected != tt.expected || tt.err.Actual != tt.actual || tt.err.Max != tt.max {
				t.Errorf("Expected=%d Actual=%d Max=%d, want %d %d %d",
					tt.err.Expected, tt.err.Actual, tt.err.Max, tt.expected, tt.actual, tt.max)
			}
			if !strings.Contains(tt.err.Detail, tt.detail) {
				t.Errorf("Detail %q does not contain %q", tt.err.Detail, tt.detail)
			}
		})
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("TypeMismatch", func(t *testing.T) {
		err := TypeMismatch(PhaseEncode, []string{"field"}, "string", "u32")
		if err.Kind != KindTypeMismatch {
			t.Errorf("Kind = %v, want %v", err.Kind, KindTypeMismatch)
		}
		if err.GoType != "string" || err.Shape != "u32" {
			t.Errorf("GoType=%v Shape=%v", err.GoType, err.Shape)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseCompile, []string{"f"}, "func()", "functions have no representation")
		if err.Kind != KindUnsupported || err.GoType != "func()" {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("FieldMissing", func(t *testing.T) {
		err := FieldMissing(PhaseEncode, []string{"record"}, "name")
		if err.Kind != KindFieldMissing {
			t.Errorf("Kind = %v, want %v", err.Kind, KindFieldMissing)
		}
		if !strings.Contains(err.Error(), `"name"`) {
			t.Errorf("error %q should name the field", err.Error())
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseRuntime, "export", "ocamlpool_enter")
		if err.Kind != KindNotFound || !strings.Contains(err.Detail, "ocamlpool_enter") {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("Instantiation", func(t *testing.T) {
		cause := errors.New("boom")
		err := Instantiation(cause)
		if !errors.Is(err, cause) {
			t.Error("Instantiation should wrap its cause")
		}
	})

	t.Run("ParseFailed", func(t *testing.T) {
		err := ParseFailed("document", errors.New("bad"))
		if err.Phase != PhaseParse || err.Kind != KindInvalidInput {
			t.Errorf("unexpected error %v", err)
		}
	})
}
