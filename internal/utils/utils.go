package utils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/neros29/mpx-Downloader/internal/logger"
)

// ErrInvalidDate is returned when a date string matches none of the accepted formats.
var ErrInvalidDate = errors.New("invalid date")

//nolint:gochecknoglobals // Immutable list of accepted layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// RandomPause pauses execution for a random duration between min and max values.
// It returns early with the context error when ctx is canceled.
func RandomPause(ctx context.Context, minPause, maxPause time.Duration) error {
	// Ensure minPause is always less than or equal to maxPause.
	if minPause > maxPause {
		minPause, maxPause = maxPause, minPause
	}

	randomDelay := minPause
	if maxPause > minPause {
		//nolint:gosec // Jitter does not need a cryptographic source.
		randomDelay += time.Duration(rand.Int64N(int64(maxPause - minPause)))
	}

	timer := time.NewTimer(randomDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsFileExist checks if a file exists at the specified path.
// It returns true if the file exists and is not a directory, false if the file does not exist,
// and an error if there was an issue accessing the file.
func IsFileExist(path string) (bool, error) {
	stat, err := os.Stat(path)
	if err == nil {
		return !stat.IsDir(), nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// ReadURLsFromFile reads a text file with one URL per line.
// Empty lines and lines starting with '#' are skipped, duplicates are dropped,
// and lines that are not http(s) URLs are reported and ignored.
func ReadURLsFromFile(ctx context.Context, path string) ([]string, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer file.Close() //nolint:errcheck // Error on close is not critical here.

	var (
		uniqueLines = make(map[string]struct{})
		lines       []string
		scanner     = bufio.NewScanner(file)
		lineNumber  int
	)

	for scanner.Scan() {
		lineNumber++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !IsHTTPURL(line) {
			logger.Warnf(ctx, "Line %d: '%s' doesn't look like a valid URL", lineNumber, line)

			continue
		}

		if _, exists := uniqueLines[line]; !exists {
			uniqueLines[line] = struct{}{}

			lines = append(lines, line)
		}
	}

	if err = scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// IsHTTPURL reports whether s starts with an http or https scheme.
func IsHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// SplitURLs splits whitespace- or comma-separated input into URLs.
func SplitURLs(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

// ParseDateInput parses an absolute date in one of the accepted layouts,
// or one of the relative words today, yesterday, week and month.
// Absolute dates are interpreted in now's location.
func ParseDateInput(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)

	for _, layout := range dateLayouts {
		if parsed, err := time.ParseInLocation(layout, value, now.Location()); err == nil {
			return parsed, nil
		}
	}

	lower := strings.ToLower(value)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case strings.Contains(lower, "today"):
		return startOfDay, nil
	case strings.Contains(lower, "yesterday"):
		return startOfDay.AddDate(0, 0, -1), nil
	case strings.Contains(lower, "week"):
		return now.AddDate(0, 0, -7), nil
	case strings.Contains(lower, "month"):
		return now.AddDate(0, 0, -30), nil
	}

	return time.Time{}, fmt.Errorf("%w: '%s'", ErrInvalidDate, value)
}

// TruncateRunes shortens s to at most maxLength runes. Zero or negative disables truncation.
func TruncateRunes(s string, maxLength int) string {
	if maxLength <= 0 {
		return s
	}

	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}

	return string(runes[:maxLength])
}

// Map applies a transformation function to each element of a slice and returns a new slice with the results.
func Map[E, S any](v []E, transformFunc func(E) S) []S {
	result := make([]S, len(v))
	for i := range v {
		result[i] = transformFunc(v[i])
	}

	return result
}
