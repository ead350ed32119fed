// Package pkg holds the libraries behind magflat.
//
// # Overview
//
// magflat reads Magic .mag layout files and flattens their cell hierarchy
// into one set of rectangles per layer. The packages split into the core
// and the collaborators that consume its result:
//
//  1. [geom] - rectangles, affine transforms and bounding boxes
//  2. [layout] - the Cell: ordered layers, rectangles and instances
//  3. [magic] - the .mag record classifier and the recursive loader
//  4. [pipeline] - cached flatten and render stages
//  5. [cache] - file, Redis and null cache backends
//  6. [io] - JSON import and export of flattened cells
//  7. [render] - SVG, PNG and PDF drawings of one layer
//  8. [scene] - solid boxes and dielectric slabs for field solvers
//
// # Data flow
//
//	.mag files
//	    ↓
//	[magic] Loader (classify records, resolve use blocks)
//	    ↓
//	[layout] Cell.Merge (copy sub-cell rects through the instance transform)
//	    ↓
//	flattened Cell → Bounds, Rects, [render], [scene], [io]
//
// # Quick Start
//
//	cell, err := magic.Load("inverter.mag")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	b, err := cell.Bounds()
//	fmt.Println(b.X())
//	fmt.Println(cell.Rects("metal1"))
//
// [geom]: github.com/matzehuels/magflat/pkg/geom
// [layout]: github.com/matzehuels/magflat/pkg/layout
// [magic]: github.com/matzehuels/magflat/pkg/magic
// [pipeline]: github.com/matzehuels/magflat/pkg/pipeline
// [cache]: github.com/matzehuels/magflat/pkg/cache
// [io]: github.com/matzehuels/magflat/pkg/io
// [render]: github.com/matzehuels/magflat/pkg/render
// [scene]: github.com/matzehuels/magflat/pkg/scene
package pkg
