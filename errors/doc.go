// Package errors provides structured error types for the ocamlrep module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// Decoding values read back from an OCaml heap fails with one of a closed set of
// kinds (wrong block size, tag out of range, invalid UTF-8, ...). Failures inside
// a field are wrapped with InField so the chain of field indices leading to the
// innermost failure is preserved.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCompile, errors.KindUnsupported).
//		Path("user", "callbacks").
//		GoType("chan int").
//		Detail("channels have no OCaml representation").
//		Build()
//
// Or use the constructors for the decode taxonomy:
//
//	err := errors.WrongBlockSize(2, 3)
//	err := errors.InField(1, errors.ExpectedBool(7))
//
// All errors implement the standard error interface and support errors.Is/As.
// Is matches on Phase and Kind only, so a bare &Error{Phase, Kind} works as a sentinel.
package errors
