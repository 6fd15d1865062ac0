// Package scene defines the value types shared by every stage of the
// spatialgen engine.
//
// # Core Types
//
//   - [Relation]: where object2 sits relative to object1 in the world frame
//   - [Placement]: the transform of one object in one image
//   - [CameraConfig]: tilt, pan, height and focal length of the camera
//   - [Combination]: one fully specified unit of work (one image, one record)
//
// # World Frame
//
// +X points right, +Y points away from the default camera (behind) and +Z
// points up. The ground plane is z = 0.
//
//	scene.Left.Axis()   // (-1, 0, 0)
//	scene.Behind.Axis() // ( 0, 1, 0)
//
// All types here are immutable values: a new Placement pair is built for
// every Combination and nothing is shared between images.
package scene
