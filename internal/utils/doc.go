// Package utils provides a collection of helper functions and utilities for common tasks,
// such as reading URL lists, parsing user-entered dates, pausing between retries,
// and transforming slices.
package utils
