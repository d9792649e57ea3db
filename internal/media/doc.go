// Package media describes the output container classes the downloader produces
// and the file extensions that belong to each of them.
package media
