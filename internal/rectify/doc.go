// Package rectify turns a photo lying on a plain mat into an upright,
// axis-aligned crop of just the photo.
//
// Rectify finds the photo's quadrilateral with package detection, maps it onto a
// rectangle sized from the longer of each pair of opposite edges, and trims a fixed
// inward margin to remove any mat left along the edges. Every failure falls back to
// the best image produced so far and, at worst, to an unmodified copy of the input;
// the reason is recorded in Result rather than returned as an error.
//
// FindBackgroundHSV searches a list of background colour presets for the first one
// whose rectification changes the image meaningfully.
package rectify
