// Package imaging provides the pixel-level helpers used by the region engine:
// a cache of decoded pattern images, cropping of desktop captures, pixel
// difference counting for change detection, and an overlay renderer for
// capture previews.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For rectangles, Min is inclusive and Max is exclusive
//
// Desktop frames may have a non-zero or negative origin when a monitor sits to
// the left of or above the primary one. Crop takes rectangles in the frame's
// own coordinate space; every image this package returns starts at (0,0).
//
// # Thread Safety
//
// ImageCache and CacheWatcher are safe for concurrent use. The other functions
// are stateless and never modify their inputs.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Crop rectangles that are empty or outside the image
//   - Images of different sizes passed to Diff (ErrDimensionMismatch)
//   - File I/O and decoding errors while loading or saving images
package imaging
