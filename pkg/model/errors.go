package model

import "fmt"

// ParseError reports malformed or truncated skeleton data: a short read, an
// unknown discriminant byte, or a JSON document that violates the schema.
// Offset is the byte position in binary input, or -1 for JSON input.
type ParseError struct {
	Offset int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		if e.Err != nil {
			return fmt.Sprintf("parse error at byte %d: %s: %v", e.Offset, e.Msg, e.Err)
		}
		return fmt.Sprintf("parse error at byte %d: %s", e.Offset, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Msg, e.Err)
	}
	return "parse error: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// VersionMismatchError is returned when the asset was exported by an editor
// whose major.minor version differs from the runtime version.
type VersionMismatchError struct {
	Found string
	Want  string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("skeleton version %q is not compatible with runtime version %s", e.Found, e.Want)
}

// MissingReferenceError is returned when a record names a bone, slot, skin,
// attachment or event that does not exist in the same asset.
type MissingReferenceError struct {
	Kind string
	Name string
}

func (e *MissingReferenceError) Error() string {
	if e.Name == "" {
		return e.Kind + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// IOError wraps a failure to open or read an asset file.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to read '%s': %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
