// Package errs defines the error kinds returned by the sqlitetest packages.
//
// Every error produced by rowgen, testdb and sqliteshell wraps exactly one
// of the sentinels below, so callers can classify failures with errors.Is
// or with KindOf without parsing messages.
package errs

import "errors"

var (
	// ErrInvalidArgument indicates a bad size, id, identifier or mode.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSchema indicates a table exists with an incompatible shape.
	ErrSchema = errors.New("schema error")
	// ErrNotFound indicates a missing row or table.
	ErrNotFound = errors.New("not found")
	// ErrStorage indicates the SQLite engine failed a read or write.
	ErrStorage = errors.New("storage error")
	// ErrLaunch indicates the external sqlite3 process could not be started.
	ErrLaunch = errors.New("launch error")
)

// Kind is the category of an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindSchema
	KindNotFound
	KindStorage
	KindLaunch
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindSchema:
		return "SchemaError"
	case KindNotFound:
		return "NotFound"
	case KindStorage:
		return "StorageError"
	case KindLaunch:
		return "LaunchError"
	default:
		return "Unknown"
	}
}

// kindPriorities is the order in which KindOf checks the sentinels. A
// NotFound raised while handling a storage failure must still report
// NotFound, so the more specific kinds come first.
var kindPriorities = []struct {
	kind Kind
	err  error
}{
	{KindInvalidArgument, ErrInvalidArgument},
	{KindSchema, ErrSchema},
	{KindNotFound, ErrNotFound},
	{KindLaunch, ErrLaunch},
	{KindStorage, ErrStorage},
}

// KindOf returns the Kind of err by walking its chain. It returns
// KindUnknown for nil and for errors that wrap none of the sentinels.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	for _, p := range kindPriorities {
		if errors.Is(err, p.err) {
			return p.kind
		}
	}

	return KindUnknown
}

// HasKind reports whether err is classified as kind.
func HasKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ErrorOf returns the sentinel for kind, or nil for KindUnknown.
func ErrorOf(kind Kind) error {
	for _, p := range kindPriorities {
		if p.kind == kind {
			return p.err
		}
	}
	return nil
}
