// Package schematic renders a top-down diagram of a composed scene.
//
// The diagram is laid out by Graphviz's neato engine with every node
// pinned to its ground position, one metre per inch. Objects are drawn as
// circles of their effective footprint radius, labelled with their id and
// facing. A camera marker sits on the side the camera looks from.
//
// The raster from Graphviz is resampled to the configured resolution with
// golang.org/x/image/draw and written as PNG or WebP. It is a preview and
// label-checking aid, not a shading renderer.
//
// Importing the package registers the "schematic" engine.
package schematic
