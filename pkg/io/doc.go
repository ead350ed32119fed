// Package io provides JSON import and export for flattened cells.
//
// # JSON Format
//
//	{
//	  "cell": "inverter",
//	  "tech": "sky130A",
//	  "layers": [
//	    {"name": "metal1", "rects": [[5, 5, 7, 7], [0, 0, -5, 10]]},
//	    {"name": "labels", "rects": []}
//	  ],
//	  "instances": [
//	    {"cell": "nfet", "name": "nfet_0", "transform": [1, 0, 5, 0, 1, 5], "line": 12}
//	  ]
//	}
//
// Layers are written in the cell's first-encounter order and rectangles in
// their stored order, corners exactly as flattened (no renormalization).
// Layers with no rectangles are kept. Round-tripping through [WriteJSON] and
// [ReadJSON] reproduces the cell exactly.
//
// # Usage
//
//	if err := io.ExportJSON(cell, "inverter.json"); err != nil {
//	    log.Fatal(err)
//	}
//	cell, err := io.ImportJSON("inverter.json")
//
// [MarshalCell] produces the compact form used as a cache payload and for
// content hashing.
package io
