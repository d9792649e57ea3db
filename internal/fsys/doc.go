// Package fsys is the narrow filesystem layer used by the archive:
// existence and modification-time queries, hard links, metadata-preserving copies
// and atomic renames.
package fsys
