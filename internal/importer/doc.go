// Package importer seeds the archive with media files that already exist on disk.
package importer
