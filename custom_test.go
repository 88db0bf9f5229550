package ocamlrep_test

import (
	"math"
	"testing"

	"github.com/wippyai/ocamlrep"
	"github.com/wippyai/ocamlrep/errors"
)

func TestNewOCamlInt(t *testing.T) {
	maxOCaml := math.MaxInt >> 1
	minOCaml := math.MinInt >> 1
	tests := []struct {
		in int
		ok bool
	}{
		{0, true},
		{-1, true},
		{maxOCaml, true},
		{minOCaml, true},
		{maxOCaml + 1, false},
		{minOCaml - 1, false},
		{math.MaxInt, false},
		{math.MinInt, false},
	}
	for _, tt := range tests {
		got, err := ocamlrep.NewOCamlInt(tt.in)
		if tt.ok {
			if err != nil || int(got) != tt.in {
				t.Errorf("NewOCamlInt(%d) = %d, %v", tt.in, got, err)
			}
			continue
		}
		e, isErr := err.(*errors.Error)
		if !isErr || e.Kind != errors.KindExpected63BitInt {
			t.Errorf("NewOCamlInt(%d) error = %v", tt.in, err)
		}
	}
}

func TestOCamlIntEraseMSB(t *testing.T) {
	maxOCaml := math.MaxInt >> 1
	minOCaml := math.MinInt >> 1
	tests := []struct {
		in   int
		want int
	}{
		{0, 0},
		{-5, -5},
		{maxOCaml, maxOCaml},
		{minOCaml, minOCaml},
		{math.MaxInt, -1},
		{math.MinInt, 0},
		{maxOCaml + 1, minOCaml},
	}
	for _, tt := range tests {
		got := ocamlrep.OCamlIntEraseMSB(tt.in)
		if int(got) != tt.want {
			t.Errorf("OCamlIntEraseMSB(%d) = %d, want %d", tt.in, got, tt.want)
		}
		if _, err := ocamlrep.NewOCamlInt(int(got)); err != nil {
			t.Errorf("OCamlIntEraseMSB(%d) left the range: %v", tt.in, err)
		}
		// Encoding is lossless once the value is in range.
		if n, _ := ocamlrep.Int(int(got)).AsInt(); n != int(got) {
			t.Errorf("Int(%d) round-tripped to %d", got, n)
		}
	}
}
