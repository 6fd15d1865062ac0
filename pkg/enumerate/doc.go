// Package enumerate produces the combinations of a dataset run.
//
// A combination binds one unordered object pair, one relation, one
// orientation pair and one camera config. The space is the product
//
//	pairs x relations x orientations x cameras
//
// where pairs are the C(K, 2) unordered pairs of the selected objects in
// lexicographic order. Within a pair the lexicographically smaller id is
// always Object1, so a run never renders both (a, b) and (b, a).
//
// # Laziness
//
// Combinations are decoded from their ordinal in the space with a mixed
// radix, so an [Enumerator] holds only the orientations of the bucket it is
// currently in. The enumerator is finite and non-restartable: once [Enumerator.Next]
// returns false it keeps returning false.
//
// # Orientations
//
// Each (pair, relation) bucket gets its own orientation list:
//
//   - random mode draws MaxImages distinct whole-degree (rot1, rot2) pairs
//     without replacement from a stream seeded by the run seed and the
//     bucket, so any shard can reproduce any bucket;
//   - [SweepQuarterTurns] crosses {0, 90, 180, 270} for objects with a
//     default orientation with {0} for those without;
//   - otherwise the fixed Rotation1/Rotation2 is used once.
//
// # Sharding
//
// A [Shard] keeps the ordinals with ordinal % Count == Index. Offset and
// Limit then apply to the shard's own sequence. Shards are disjoint and
// together cover the space exactly once; [scene.Combination.Index] always
// carries the global ordinal so file names never collide across shards.
package enumerate
