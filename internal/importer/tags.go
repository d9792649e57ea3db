package importer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/oshokin/id3v2/v2"

	"github.com/neros29/mpx-Downloader/internal/constants"
	"github.com/neros29/mpx-Downloader/internal/logger"
)

// TagReader extracts embedded titles from media files.
type TagReader interface {
	// Title returns the embedded title or an empty string.
	Title(ctx context.Context, path string) string
}

// TagReaderImpl reads ID3v2 and Vorbis comment titles.
type TagReaderImpl struct{}

// NewTagReader creates a TagReader.
func NewTagReader() TagReader {
	return &TagReaderImpl{}
}

// Title implements TagReader.
func (tr *TagReaderImpl) Title(ctx context.Context, path string) string {
	var (
		title string
		err   error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case constants.ExtensionMP3:
		title, err = readID3Title(path)
	case constants.ExtensionFLAC:
		title, err = readVorbisTitle(path)
	default:
		return ""
	}

	if err != nil {
		logger.Debugf(ctx, "Failed to read tags of '%s': %v", path, err)

		return ""
	}

	return strings.TrimSpace(title)
}

func readID3Title(path string) (string, error) {
	tag, err := id3v2.Open(filepath.Clean(path), id3v2.Options{Parse: true, ParseFrames: []string{"Title"}})
	if err != nil {
		return "", err
	}

	defer tag.Close() //nolint:errcheck // Read-only access.

	return tag.Title(), nil
}

func readVorbisTitle(path string) (string, error) {
	f, err := flac.ParseFile(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	for _, meta := range f.Meta {
		if meta.Type != flac.VorbisComment {
			continue
		}

		comment, parseErr := flacvorbis.ParseFromMetaDataBlock(*meta)
		if parseErr != nil {
			return "", parseErr
		}

		values, getErr := comment.Get(flacvorbis.FIELD_TITLE)
		if getErr != nil || len(values) == 0 {
			return "", getErr
		}

		return values[0], nil
	}

	return "", nil
}
