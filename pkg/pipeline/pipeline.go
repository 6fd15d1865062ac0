// Package pipeline renders combinations and records their metadata.
//
// A [Runner] ties the pieces together. For each combination it
//
//  1. resolves both assets in the catalog,
//  2. computes non-overlapping placements,
//  3. drives the render scene (reset, load, camera, render, reset),
//  4. describes the image and hands the record to the sinks.
//
// # Usage
//
// Render one image and surface every error:
//
//	runner := pipeline.NewRunner(cat, engine, nil, nil, logger)
//	res, err := runner.RunSingle(ctx, combination)
//
// Render a whole enumeration, skipping what cannot be rendered:
//
//	enum, err := enumerate.New(cat, enumerate.Options{Random: true, MaxImages: 5})
//	stats, err := runner.RunBatch(ctx, enum, pipeline.BatchInfo{Seed: 42})
//
// # Failure policy
//
// In a batch an OVERLAP skips the combination, a RENDER_ENGINE failure is
// logged and the batch continues, and an IO failure is retried once before
// the combination is skipped. Configuration, catalog and unknown-asset
// errors stop the batch, as does an engine that reports [render.ErrEngineFatal]
// or a cancelled context. Whatever was finished is recorded in the cache,
// so re-running the same command resumes where the last run stopped.
package pipeline

import "time"

const (
	// DefaultDistance is the default gap between the two footprints in metres.
	DefaultDistance = 3.0

	// DefaultPrefix is the default file name prefix.
	DefaultPrefix = "spatial"

	// DefaultRetryDelay is the pause before the single IO retry.
	DefaultRetryDelay = 200 * time.Millisecond

	// ioAttempts is the first try plus one retry.
	ioAttempts = 2
)
