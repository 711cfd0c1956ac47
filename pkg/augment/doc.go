// Package augment implements annotation-consistent image augmentation.
//
// # Overview
//
// Every operator implements [Transform]: it consumes an image and the
// annotations that belong to it and returns a new image together with a new
// annotation list whose boxes still cover the same pixels. Inputs are never
// modified; operators work on copies.
//
// The available operators are:
//
//   - [Rotator]: rotation by a random whole-degree angle onto an enlarged
//     canvas that holds the entire rotated image
//   - [HorizontalShifter], [VerticalShifter]: translation by a random
//     fraction of the image size; exposed areas are filled with black
//   - [NoiseAdder]: additive Gaussian noise on every colour sample
//   - [HorizontalFlipper], [VerticalFlipper]: mirroring
//
// # Box Policy
//
// All geometric operators share one policy: after moving a box it is clipped
// to the output frame with [geom.Clip] and dropped when it no longer has a
// positive width and height. Shifters can additionally drop boxes that keep
// no more than ten percent of their area ([geom.IsVisible]); see
// [HorizontalShifter.DropOccluded]. A box with non-finite coordinates fails
// the whole call with [errors.ErrCodeMalformedAnnotation].
//
// # Randomness
//
// Operators hold no random state. Each call receives a *rand.Rand, so a run
// is reproducible when the generator is seeded deterministically:
//
//	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
//	out, anns, err := rot.Modify(img, anns, rng)
//
// # Pipelines
//
// A [Pipeline] is an ordered list of [Stage] values, each pairing a
// transform with a trigger probability. [Pipeline.Apply] draws one uniform
// value per stage and runs the stage when the value is below its
// probability, so any subset of stages may fire for a given image.
package augment
