// Package camera produces camera configurations and camera-frame geometry.
//
// # Configurator
//
// [Configs] returns the camera configs for one run:
//
//   - every parameter pinned: fixed mode, exactly one config
//   - random: up to n distinct configs sampled from [Ranges] with a seeded
//     PCG generator, so a batch is reproducible from its seed
//   - otherwise: deterministic stepping over a lattice spanning [Ranges]
//
// Pinned parameters stay fixed in every mode. No two configs returned by one
// call are equal (within [scene.Tolerance]).
//
// # Frame
//
// [NewFrame] builds the camera basis from its rotation (Rz(pan) * Rx(tilt),
// camera looking down its local -Z) and projects it onto the ground plane.
// [Frame.Classify] turns a world displacement into the relation a viewer
// of the image perceives, which can differ from the world-frame relation
// once the camera is panned.
package camera
