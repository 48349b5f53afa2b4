// Package enhance implements the intensity stages of the touch-up pipeline:
// edge-preserving denoise, local contrast equalization and unsharp masking.
//
// All functions take and return opaque *image.NRGBA values and never modify their
// input. They are deterministic: the same input and parameters always give
// byte-identical output. Parameters are used as given; values below what a filter
// can sensibly use are clamped only as far as needed to avoid a division by zero.
package enhance
