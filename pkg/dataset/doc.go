// Package dataset reads back a rendered dataset.
//
// A batch run leaves one metadata file per image under the scene root,
// grouped by pair and bucket, plus one manifest per shard:
//
//	scenes/
//	  manifest.json
//	  lamp_mug/
//	    lamp_mug_front/spatial_000000.json
//	    lamp_mug_right/spatial_000001.json
//
// [Load] walks that tree into an [Index], which groups the records by
// pair and bucket and resolves the image that belongs to each record.
// [WriteJSONL] exports an index as one record per line, the format most
// training loaders expect.
package dataset
