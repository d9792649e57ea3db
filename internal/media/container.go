package media

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/neros29/mpx-Downloader/internal/constants"
)

// Container is the logical output format class of an archived file.
// The same media captured into two containers yields two archive entries.
type Container string

const (
	// ContainerMP3 is the audio class converted to MP3.
	ContainerMP3 Container = "mp3"
	// ContainerNative is the audio class kept in whatever codec the source served.
	ContainerNative Container = "native"
	// ContainerMKV is the video class merged into Matroska.
	ContainerMKV Container = "mkv"
	// ContainerMP4 is the video class merged into MP4.
	ContainerMP4 Container = "mp4"
)

// ErrUnknownContainer is returned when a container name is not recognized.
var ErrUnknownContainer = errors.New("unknown container")

//nolint:gochecknoglobals // Immutable lookup tables.
var (
	mp3Extensions    = []string{constants.ExtensionMP3}
	nativeExtensions = []string{
		constants.ExtensionM4A,
		constants.ExtensionOPUS,
		constants.ExtensionWEBM,
		constants.ExtensionMP3,
		constants.ExtensionAAC,
	}
	videoExtensions = []string{
		constants.ExtensionMP4,
		constants.ExtensionM4V,
		constants.ExtensionMKV,
		constants.ExtensionWEBM,
		constants.ExtensionAVI,
	}

	// Extensions recognized when importing without an explicit container.
	autoAudioExtensions = []string{
		constants.ExtensionMP3,
		constants.ExtensionM4A,
		constants.ExtensionAAC,
		constants.ExtensionFLAC,
		constants.ExtensionWAV,
		constants.ExtensionOPUS,
	}
	autoVideoExtensions = []string{
		constants.ExtensionMP4,
		constants.ExtensionMKV,
		constants.ExtensionWEBM,
		constants.ExtensionAVI,
		constants.ExtensionMOV,
	}
)

// All returns every supported container in menu order.
func All() []Container {
	return []Container{ContainerMP3, ContainerMKV, ContainerMP4, ContainerNative}
}

// ParseContainer converts user input into a Container.
func ParseContainer(value string) (Container, error) {
	c := Container(strings.ToLower(strings.TrimSpace(value)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: '%s'", ErrUnknownContainer, value)
	}

	return c, nil
}

// IsValid reports whether c is one of the supported containers.
func (c Container) IsValid() bool {
	return slices.Contains(All(), c)
}

// IsAudio reports whether c is an audio-only class.
func (c Container) IsAudio() bool {
	return c == ContainerMP3 || c == ContainerNative
}

// IsVideo reports whether c is a video class.
func (c Container) IsVideo() bool {
	return c == ContainerMKV || c == ContainerMP4
}

// String implements fmt.Stringer.
func (c Container) String() string {
	return string(c)
}

// Description returns a short label for menus and tables.
func (c Container) Description() string {
	switch c {
	case ContainerMP3:
		return "MP3 audio (converted)"
	case ContainerNative:
		return "Native audio (no conversion)"
	case ContainerMKV:
		return "MKV video"
	case ContainerMP4:
		return "MP4 video"
	default:
		return string(c)
	}
}

// Extensions returns the file extensions that count as files of this container.
func (c Container) Extensions() []string {
	switch c {
	case ContainerMP3:
		return slices.Clone(mp3Extensions)
	case ContainerNative:
		return slices.Clone(nativeExtensions)
	case ContainerMKV, ContainerMP4:
		return slices.Clone(videoExtensions)
	default:
		return nil
	}
}

// Matches reports whether the path has one of the container's extensions.
func (c Container) Matches(path string) bool {
	return slices.Contains(c.Extensions(), strings.ToLower(filepath.Ext(path)))
}

// DefaultExtension is the extension used when nothing better is known.
func (c Container) DefaultExtension() string {
	if c == ContainerNative {
		return constants.ExtensionM4A
	}

	return "." + string(c)
}

// DetectContainer guesses a container from a file extension.
// Audio files map to mp3 and video files to mkv.
func DetectContainer(path string) (Container, bool) {
	ext := strings.ToLower(filepath.Ext(path))

	switch {
	case slices.Contains(autoAudioExtensions, ext):
		return ContainerMP3, true
	case slices.Contains(autoVideoExtensions, ext):
		return ContainerMKV, true
	default:
		return "", false
	}
}
