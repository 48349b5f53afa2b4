// Package pipeline runs the touch-up stages over a photo in a fixed order:
// orientation, crop, rotation, denoise, contrast, sharpen.
//
// Process is a pure function of its input buffer and settings. It never returns
// an empty image for a non-empty input: a stage that fails or panics is logged
// and skipped, and the result is marked not OK. The EXIF block seen after
// orientation is reattached to the final image, or left off if there was none.
//
// ProcessFiles is the serial batch loop on top of Process. It saves every result
// and keeps going past individual failures.
package pipeline
