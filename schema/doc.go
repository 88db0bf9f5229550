// Package schema converts dynamic Go values to and from OCaml values whose
// shape is described by a WIT type instead of a Go type.
//
// The mapping follows the transcoder package: records and tuples are tag-0
// blocks, lists are cons lists, options are None or a one-field block, and
// variant cases are numbered separately among nullary cases (immediates)
// and cases with a payload (block tags).
//
//	t, _ := schema.ParseType("list<tuple<string, u32>>")
//	v, err := schema.AddRoot(a, t, []any{[]any{"a", 1}})
//	back, err := schema.Decode(t, v)
package schema
