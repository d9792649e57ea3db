package materializer

// Method describes how a destination was produced.
type Method int

const (
	// MethodNone means nothing was produced.
	MethodNone Method = iota
	// MethodSameFile means the destination already was the archived file.
	MethodSameFile
	// MethodLinked means the destination is a hard link to the archived file.
	MethodLinked
	// MethodCopied means the archived file was copied byte by byte.
	MethodCopied
)

// String implements fmt.Stringer.
func (m Method) String() string {
	switch m {
	case MethodSameFile:
		return "same file"
	case MethodLinked:
		return "linked"
	case MethodCopied:
		return "copied"
	default:
		return "none"
	}
}

// FailureKind classifies why materialization did not succeed.
// Every failure is a cache miss for the caller, never a fatal error.
type FailureKind int

const (
	// FailureNone marks success.
	FailureNone FailureKind = iota
	// FailureSourceMissing means the archived file is gone.
	FailureSourceMissing
	// FailurePermission means the filesystem refused access.
	FailurePermission
	// FailureTargetDir means the target folder could not be created.
	FailureTargetDir
	// FailureCopy means both linking and copying failed.
	FailureCopy
)

// String implements fmt.Stringer.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureSourceMissing:
		return "source missing"
	case FailurePermission:
		return "permission denied"
	case FailureTargetDir:
		return "target directory unavailable"
	case FailureCopy:
		return "copy failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single materialization.
type Result struct {
	// Destination is the resolved target path.
	Destination string
	// Method is how the destination was produced.
	Method Method
	// Failure is FailureNone on success.
	Failure FailureKind
	// BytesCopied is non-zero only for MethodCopied.
	BytesCopied int64
	// Err holds the underlying error of a failure.
	Err error
}

// OK reports whether the destination is usable.
func (r Result) OK() bool {
	return r.Failure == FailureNone
}
