// Package imaging provides the pixel-level operations of the augmentation
// engine: cutting annotated regions out of a source image, compositing them
// onto a background canvas, and drawing debug overlays.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Annotation boxes are
// (left, top, width, height); image.Rectangle values are inclusive at Min and
// exclusive at Max.
//
// # Regions and Borders
//
// A Region keeps the annotated box together with a border of context pixels
// on every side. The border is chosen per sample with SampleBorder so
// generated images vary in how much surrounding context each box carries.
// When placement has to shrink regions, Region.Shrink scales the pixels, the
// box and the border together so Composite can still align the box content
// with its placed rectangle.
//
// # Ownership
//
// ImageCache is safe for concurrent use and hands out shared images that
// must not be modified. Regions and canvases are owned by the sample being
// processed and are discarded once it is written.
package imaging
