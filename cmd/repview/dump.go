package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/wippyai/ocamlrep"
)

type nodeKind int

const (
	kindInt nodeKind = iota
	kindString
	kindDouble
	kindBlock
	kindOpaque
)

// summarize renders v on one line. Scannable blocks render their header
// only; their fields are children.
func summarize(v ocamlrep.Value) (string, nodeKind) {
	b, ok := v.AsBlock()
	if !ok {
		n, _ := v.AsInt()
		return strconv.Itoa(n), kindInt
	}
	switch tag := b.Tag(); {
	case tag == ocamlrep.StringTag:
		data := b.StringBytes()
		if utf8.Valid(data) {
			return strconv.Quote(string(data)), kindString
		}
		return fmt.Sprintf("%q", data), kindString
	case tag == ocamlrep.DoubleTag && b.Size() == 1:
		f, _ := ocamlrep.FloatFromValue(v)
		return strconv.FormatFloat(f, 'g', -1, 64), kindDouble
	case tag >= ocamlrep.NoScanTag:
		return fmt.Sprintf("<tag=%d size=%d>", tag, b.Size()), kindOpaque
	default:
		return fmt.Sprintf("block tag=%d size=%d", tag, b.Size()), kindBlock
	}
}

// children returns the fields of a scannable block.
func children(v ocamlrep.Value) []ocamlrep.Value {
	b, ok := v.AsBlock()
	if !ok || b.Tag() >= ocamlrep.NoScanTag {
		return nil
	}
	return b.Fields()
}

// countRefs counts the references to every scannable block reachable from v.
func countRefs(v ocamlrep.Value, refs map[ocamlrep.Value]int) {
	if _, ok := v.AsBlock(); !ok {
		return
	}
	refs[v]++
	if refs[v] > 1 {
		return
	}
	for _, f := range children(v) {
		countRefs(f, refs)
	}
}

var palette = map[nodeKind]func(a ...any) string{
	kindInt:    color.New(color.FgYellow).SprintFunc(),
	kindString: color.New(color.FgGreen).SprintFunc(),
	kindDouble: color.New(color.FgMagenta).SprintFunc(),
	kindBlock:  color.New(color.FgCyan).SprintFunc(),
	kindOpaque: color.RGB(128, 128, 128).SprintFunc(),
}

var (
	labelColor  = color.New(color.Faint).SprintFunc()
	anchorColor = color.New(color.FgRed, color.Bold).SprintFunc()
)

type dumper struct {
	w        io.Writer
	maxDepth int
	refs     map[ocamlrep.Value]int
	anchors  map[ocamlrep.Value]int
}

// dump writes v as an indented block tree. Blocks reached more than once
// are printed once with an anchor &N and referenced as *N afterwards.
func dump(w io.Writer, v ocamlrep.Value, maxDepth int) error {
	d := &dumper{
		w:        w,
		maxDepth: maxDepth,
		refs:     make(map[ocamlrep.Value]int),
		anchors:  make(map[ocamlrep.Value]int),
	}
	countRefs(v, d.refs)
	return d.node(v, "", 0)
}

func (d *dumper) node(v ocamlrep.Value, label string, depth int) error {
	var line strings.Builder
	line.WriteString(strings.Repeat("  ", depth))
	if label != "" {
		line.WriteString(labelColor(label + ": "))
	}

	if id, ok := d.anchors[v]; ok {
		line.WriteString(anchorColor(fmt.Sprintf("*%d", id)))
		_, err := fmt.Fprintln(d.w, line.String())
		return err
	}

	text, kind := summarize(v)
	line.WriteString(palette[kind](text))
	if d.refs[v] > 1 {
		id := len(d.anchors) + 1
		d.anchors[v] = id
		line.WriteString(" " + anchorColor(fmt.Sprintf("&%d", id)))
	}

	fields := children(v)
	if len(fields) > 0 && d.maxDepth > 0 && depth >= d.maxDepth {
		line.WriteString(labelColor(" ..."))
		fields = nil
	}
	if _, err := fmt.Fprintln(d.w, line.String()); err != nil {
		return err
	}
	for i, f := range fields {
		if err := d.node(f, strconv.Itoa(i), depth+1); err != nil {
			return err
		}
	}
	return nil
}
