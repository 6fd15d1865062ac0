// Package metadata records the ground truth of every rendered image.
//
// [Describe] is a pure function of the combination, the placements, the
// camera and the catalog: calling it twice yields identical records, and
// [Encode] turns a record into byte-for-byte reproducible JSON. Floats are
// written with six decimals and trailing zeros trimmed, and negative zero
// is written as 0, so platform noise never changes a file.
//
// The relative perspective in a record is always recomputed from the camera
// frame. For a panned camera it may differ from the world relation the
// scene was composed with; consumers that train on "what the viewer sees"
// should read relative_perspective.relation, not relation. On a diagonal
// view both readings are equally valid: relation holds the lateral one and
// alternative the front/behind one.
//
// Records are persisted through a [Sink]. [FileSink] writes one JSON file
// per image next to the image tree, [MongoSink] upserts the same documents
// into a collection, and [MultiSink] fans out to several sinks.
package metadata
