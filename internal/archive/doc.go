// Package archive implements the persistent index of media files the downloader
// already has on disk.
//
// The index is a single JSON document mapping a composite key
// (source, identity, container) to the file that satisfies it. Lookups heal the
// index as they go: an entry whose file has disappeared is evicted before it can
// satisfy a request. When an identity is unknown, entries can still be matched by
// their sanitized title within the same container.
package archive
