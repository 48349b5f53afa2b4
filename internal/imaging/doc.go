// Package imaging provides the raster primitives the touch-up pipeline is built on.
//
// The central type is Buffer: a decoded photo held as *image.NRGBA together with
// the metadata that must survive processing (the raw EXIF payload and the embedded
// ICC colour profile). Every operation in this package takes a Buffer or an
// image.Image and returns a fresh value; nothing is modified in place.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Pixel Format
//
// Buffers always hold non-premultiplied RGBA with an opaque alpha channel. Loading
// converts whatever the decoder produced (YCbCr, Gray, paletted, 16-bit) into that
// single layout, so later stages never need to switch on the concrete image type.
//
// # HSV Scale
//
// HSV values use the 8-bit scale common to scanning tools: hue 0-179 (degrees / 2),
// saturation 0-255 and value 0-255. Background ranges written for OpenCV-based
// tools can be used unchanged.
//
// # Metadata
//
// EXIF is captured only from JPEG input, as the raw TIFF-structured payload of the
// APP1 segment. It is carried as an opaque blob and written back verbatim on save;
// the only field ever interpreted is Orientation. ICC profiles are captured from the
// APP2 ICC_PROFILE segments of JPEG input.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Buffers are owned by a single
// processing invocation and must not be shared between concurrent invocations.
package imaging
