// Package humanoid varies replayed input so it does not look machine generated.
//
// An Engine is seeded per playback session and supplies delay jitter, slow
// timing drift, occasional micro-pauses, key hold durations and mouse pixel
// noise. NaturalPath bends straight mouse moves into eased spline paths made of
// hardware sized packets. Strategy selects between the engine, the simpler
// uniform jitter of the legacy randomize mode, or no variation at all.
package humanoid
