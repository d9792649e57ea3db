// Package materializer places archived files into target folders,
// hard-linking where the filesystem allows it and copying otherwise.
package materializer
