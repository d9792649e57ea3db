// Package download runs a download session: it lists every URL, reuses files
// the archive already holds, fetches the rest with yt-dlp and records them.
package download
