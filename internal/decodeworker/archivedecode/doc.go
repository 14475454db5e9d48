// Package archivedecode walks a zipped archive block and decodes each
// contained file into either a 2D raster (via
// github.com/disintegration/imaging) or an inert 3D blob, depending on
// the session's Dimension2D flag.
//
// Filenames are never interpreted by the core; an entry's index is its
// position in the archive's own central directory order, matching how a
// chunk-writing producer appends entries in frame order.
package archivedecode
