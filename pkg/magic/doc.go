// Package magic parses Magic VLSI .mag layout files and flattens their cell
// hierarchy into a single [layout.Cell].
//
// # File Format
//
// A cell file is a sequence of line records:
//
//	magic
//	tech sky130A
//	timestamp 1700000000
//	<< metal1 >>
//	rect 0 0 2 2
//	use leaf inst1
//	transform 1 0 5 0 1 5
//	box 0 0 0 0
//	<< labels >>
//	flabel metal1 0 0 0 0 0 FreeSans 8 0 0 0 A
//	port 1 nsew
//
// The first two lines must be the magic and tech headers. A layer directive
// sets the current layer for the rect and flabel records that follow it.
// A use block runs from the use record to the next box record and must carry
// exactly one transform record.
//
// # Flattening
//
// Every use block loads <cellname>.mag from the directory of the referencing
// file and merges its rectangles, mapped through the instance transform, into
// the same-named layers of the parent. Rectangles are appended in file order
// followed by instance expansion order.
//
// The [Loader] guards recursion with a stack of in-progress files (cycles
// fail with REFERENCE_CYCLE) and a nesting limit (DEPTH_EXCEEDED). Completed
// cells are memoized by absolute path, so a sub-cell used many times is
// parsed once.
//
// # Errors
//
// Malformed recognized records, missing headers, rect or flabel records
// before any layer directive, and use blocks without exactly one transform
// are STRUCTURAL errors carrying the file and line. Lines the classifier
// does not recognize are skipped and reported through [Loader.Notices].
package magic
