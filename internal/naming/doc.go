// Package naming holds the pure naming rules shared by every component:
// the title sanitizer used for filenames and for fuzzy archive matching,
// and the resolvers that place the archive document and playlist folders on disk.
package naming
