// Package pkg provides the core libraries for spatialgen, a generator of
// synthetic two-object spatial-reasoning images.
//
// # Overview
//
// spatialgen places two catalog assets next to each other on a ground
// plane, points a camera at them and renders one image per combination of
// objects, relation, orientations and camera. Every image is paired with a
// JSON record that names the relation both in world terms and as the camera
// perceives it, plus a set of caption strings.
//
// # Architecture
//
// The typical data flow:
//
//	assets/properties.json
//	         ↓
//	    [catalog] package (asset ids, sizes, rotation symmetry)
//	         ↓
//	    [enumerate] package (pairs × relations × orientations × cameras)
//	         ↓
//	    [placement] + [camera] packages (world positions, perceived relation)
//	         ↓
//	    [render] package (engine lifecycle, [render/schematic], [render/command])
//	         ↓
//	    [metadata] package (scene records, captions, MongoDB mirror)
//	         ↓
//	    output/images/<pair>/<bucket>/*.png + output/scenes/...
//
// [pipeline] ties these together and adds resumption through [cache] and
// per-shard manifests. [dataset] reads a finished output tree back.
//
// # Quick Start
//
//	cat, _ := catalog.Load("assets/properties.json")
//	enum, _ := enumerate.New(cat, enumerate.Options{Objects: []string{"shoe", "puma"}})
//	engine, _ := render.New("schematic", render.Settings{Format: render.FormatPNG})
//
//	r := pipeline.NewRunner(cat, engine, cache.NewNullCache(), cache.NewDefaultKeyer(), logger)
//	defer r.Close()
//	stats, err := r.RunBatch(ctx, enum, pipeline.BatchInfo{Seed: 42})
//
// # Supporting Packages
//
// [scene] - Shared value types: relations, poses, camera configurations and
// the combination that identifies one image.
//
// [errors] - Coded errors. The code decides whether a batch skips, retries
// or stops.
//
// [config] - TOML configuration with XDG lookup and rotating log files.
//
// [observability] - Hooks for render and HTTP events.
//
// [buildinfo] - Version information set through ldflags.
package pkg
