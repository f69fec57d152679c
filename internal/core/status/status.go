package status

import "errors"

// Kind is the closed set of outcomes for fallible container and engine
// operations. A Kind is itself an error so it can be wrapped with %w and
// matched with errors.Is.
type Kind uint8

const (
	Ok Kind = iota
	AllocationFailed
	KeyNotFound
	InvalidArgument
	KeyExists
)

var kindNames = [...]string{
	Ok:               "ok",
	AllocationFailed: "allocation failed",
	KeyNotFound:      "key not found",
	InvalidArgument:  "invalid argument",
	KeyExists:        "key exists",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

func (k Kind) Error() string { return k.String() }

// Of reports the Kind carried by err. A nil error is Ok; an error that wraps
// no Kind is reported as InvalidArgument.
func Of(err error) Kind {
	if err == nil {
		return Ok
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return InvalidArgument
}
