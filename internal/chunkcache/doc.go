// Package chunkcache implements a bounded, admission-order LRU mapping
// chunk numbers to their decoded frame sets.
//
// Eviction policy: strict LRU by admission time. The OrderedStack backing
// the cache is ordered by admission, never by access - reads never
// reorder it. Decoded chunks are written once and read many times by a
// UI's short-window navigation, so admission order is a good proxy for
// temporal locality and avoids contention on the read path.
//
// Generic over the frame value type so this package has no dependency on
// the root framedecoder package's DecodedFrame/Bitmap/Blob distinction;
// callers supply a release function describing how to free a value.
package chunkcache
