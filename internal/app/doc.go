// Package app wires configuration, the archive store, the yt-dlp client and the
// download service together and exposes one entry point per CLI command.
package app
