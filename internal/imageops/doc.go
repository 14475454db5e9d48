// Package imageops crops row-major RGBA8 buffers to a target render size
// and carries the native-resource release contract for decoded rasters.
//
// No filtering is ever applied; callers guarantee dstW <= srcW and
// dstH <= srcH.
package imageops
