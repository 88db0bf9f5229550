package wasmheap

// SimulatedRuntime is a minimal guest that implements the block-reservation
// exports over a fixed 128 KiB heap. Blocks are bump-allocated from offset 16
// with 8-byte words; nothing is ever collected.
//
//	(module
//	  (memory (export "memory") 2 2)
//	  (global $gen (export "ocamlpool_generation") (mut i64) (i64.const 0))
//	  (global $top (mut i32) (i32.const 16))
//	  (func (export "ocamlpool_enter")
//	    (global.set $gen (i64.add (global.get $gen) (i64.const 1))))
//	  (func (export "ocamlpool_leave"))
//	  (func (export "ocamlpool_reserve_block") (param $tag i32) (param $size i32) (result i32)
//	    (local $hdr i32)
//	    (local.set $hdr (global.get $top))
//	    (i64.store (local.get $hdr)
//	      (i64.or (i64.or (i64.shl (i64.extend_i32_u (local.get $size)) (i64.const 10))
//	                      (i64.extend_i32_u (local.get $tag)))
//	              (i64.const 768)))
//	    (global.set $top (i32.add (local.get $hdr)
//	      (i32.mul (i32.add (local.get $size) (i32.const 1)) (i32.const 8))))
//	    (i32.add (local.get $hdr) (i32.const 8)))
//	  (func (export "caml_initialize") (param $off i32) (param $v i64)
//	    (i64.store (local.get $off) (local.get $v))))
//
// Headers carry the marked color (768 = 3<<8). Reserving past the end of
// memory traps.
var SimulatedRuntime = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,

	// type section: () -> (), (i32, i32) -> i32, (i32, i64) -> ()
	0x01, 0x0f, 0x03,
	0x60, 0x00, 0x00,
	0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x60, 0x02, 0x7f, 0x7e, 0x00,

	// function section
	0x03, 0x05, 0x04, 0x00, 0x00, 0x01, 0x02,

	// memory section: min 2, max 2 pages
	0x05, 0x04, 0x01, 0x01, 0x02, 0x02,

	// global section
	0x06, 0x0b, 0x02,
	0x7e, 0x01, 0x42, 0x00, 0x0b,
	0x7f, 0x01, 0x41, 0x10, 0x0b,

	// export section
	0x07, 0x71, 0x06,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x14, 'o', 'c', 'a', 'm', 'l', 'p', 'o', 'o', 'l', '_', 'g', 'e', 'n', 'e', 'r', 'a', 't', 'i', 'o', 'n', 0x03, 0x00,
	0x0f, 'o', 'c', 'a', 'm', 'l', 'p', 'o', 'o', 'l', '_', 'e', 'n', 't', 'e', 'r', 0x00, 0x00,
	0x0f, 'o', 'c', 'a', 'm', 'l', 'p', 'o', 'o', 'l', '_', 'l', 'e', 'a', 'v', 'e', 0x00, 0x01,
	0x17, 'o', 'c', 'a', 'm', 'l', 'p', 'o', 'o', 'l', '_', 'r', 'e', 's', 'e', 'r', 'v', 'e', '_', 'b', 'l', 'o', 'c', 'k', 0x00, 0x02,
	0x0f, 'c', 'a', 'm', 'l', '_', 'i', 'n', 'i', 't', 'i', 'a', 'l', 'i', 'z', 'e', 0x00, 0x03,

	// code section
	0x0a, 0x46, 0x04,
	// ocamlpool_enter
	0x09, 0x00,
	0x23, 0x00, 0x42, 0x01, 0x7c, 0x24, 0x00,
	0x0b,
	// ocamlpool_leave
	0x02, 0x00, 0x0b,
	// ocamlpool_reserve_block
	0x2d, 0x01, 0x01, 0x7f,
	0x23, 0x01, 0x21, 0x02,
	0x20, 0x02,
	0x20, 0x01, 0xad, 0x42, 0x0a, 0x86,
	0x20, 0x00, 0xad, 0x84,
	0x42, 0x80, 0x06, 0x84,
	0x37, 0x03, 0x00,
	0x20, 0x02,
	0x20, 0x01, 0x41, 0x01, 0x6a, 0x41, 0x08, 0x6c, 0x6a,
	0x24, 0x01,
	0x20, 0x02, 0x41, 0x08, 0x6a,
	0x0b,
	// caml_initialize
	0x09, 0x00,
	0x20, 0x00, 0x20, 0x01, 0x37, 0x03, 0x00,
	0x0b,
}
