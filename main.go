// Command mpx-downloader downloads media with yt-dlp and keeps a local archive
// so that nothing already on disk is downloaded twice.
package main

import "github.com/neros29/mpx-Downloader/cmd"

func main() {
	cmd.Execute()
}
