// Package types defines the compiled type structures for fast transcoding.
//
// CompiledType holds the shape information the transcoder derives once per
// Go type: the OCaml representation kind, block fields in slot order,
// variant cases with their tags, and the conversion hooks a type provides.
//
// # Key Types
//
//   - CompiledType: Cached type metadata
//   - Kind: Representation discriminator (immediate, record, list, variant, etc.)
//
// This package is internal to the transcoder.
package types
