// Package ytdlp drives the yt-dlp executable.
// It lists remote collections without probing their items, fetches media
// into a container class, and reports the final location of every finished item.
package ytdlp
