package wire

import (
	"encoding/json"
	"fmt"
)

// Identifiable is implemented by every type usable inside a Ref so the
// generic can recover an integer identifier from an expanded record.
type Identifiable interface {
	RefID() int
}

// CodeIdentifiable is implemented by types keyed by an opaque short string
// (speakers and proposals) rather than an integer id.
type CodeIdentifiable interface {
	RefCode() string
}

// Ref models an int-keyed field whose wire representation drifted across
// upstream API versions: older payloads embed the full nested object,
// newer ones replace it with a bare identifier. A Ref unmarshals either
// shape and remembers which one it saw; ID is always available regardless
// of shape.
type Ref[T Identifiable] struct {
	id   int
	full *T
	set  bool
}

// NewRef constructs a Ref holding only an identifier (the un-expanded form).
func NewRef[T Identifiable](id int) Ref[T] {
	return Ref[T]{id: id, set: true}
}

// NewFullRef constructs a Ref that already carries the expanded record.
func NewFullRef[T Identifiable](v T) Ref[T] {
	return Ref[T]{id: v.RefID(), full: &v, set: true}
}

// ID returns the identifier regardless of whether this Ref is expanded.
func (r Ref[T]) ID() int { return r.id }

// IsZero reports whether this Ref was never populated (distinguishes a
// genuinely absent nullable reference from id 0).
func (r Ref[T]) IsZero() bool { return !r.set }

// Full returns the expanded record and true if one is already present.
func (r Ref[T]) Full() (T, bool) {
	if r.full == nil {
		var zero T
		return zero, false
	}
	return *r.full, true
}

// WithFull returns a copy of this Ref carrying the given expanded record,
// used by the expansion cache to promote an id-only Ref after a lookup.
func (r Ref[T]) WithFull(v T) Ref[T] {
	r.full = &v
	r.id = v.RefID()
	r.set = true
	return r
}

// UnmarshalJSON accepts either a bare number (id-only, the newer wire
// format) or a JSON object (the nested form kept for backward
// compatibility by some upstream versions).
func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ref[T]{}
		return nil
	}

	var id int
	if err := json.Unmarshal(data, &id); err == nil {
		*r = Ref[T]{id: id, set: true}
		return nil
	}

	var full T
	if err := json.Unmarshal(data, &full); err != nil {
		return fmt.Errorf("ref: value is neither an id nor an object: %w", err)
	}
	*r = Ref[T]{id: full.RefID(), full: &full, set: true}
	return nil
}

// MarshalJSON always writes the identifier form; the client never needs to
// write an expanded nested object back to the upstream.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.id)
}

// CodeRef is the code-keyed analogue of Ref, used for speakers (whose
// upstream identifier is an opaque short string rather than an integer).
type CodeRef[T CodeIdentifiable] struct {
	code string
	full *T
	set  bool
}

// NewCodeRef constructs a CodeRef holding only a code.
func NewCodeRef[T CodeIdentifiable](code string) CodeRef[T] {
	return CodeRef[T]{code: code, set: true}
}

// NewFullCodeRef constructs a CodeRef that already carries the expanded record.
func NewFullCodeRef[T CodeIdentifiable](v T) CodeRef[T] {
	return CodeRef[T]{code: v.RefCode(), full: &v, set: true}
}

// Code returns the identifier regardless of whether this CodeRef is expanded.
func (r CodeRef[T]) Code() string { return r.code }

// IsZero reports whether this CodeRef was never populated.
func (r CodeRef[T]) IsZero() bool { return !r.set }

// Full returns the expanded record and true if one is already present.
func (r CodeRef[T]) Full() (T, bool) {
	if r.full == nil {
		var zero T
		return zero, false
	}
	return *r.full, true
}

// WithFull returns a copy of this CodeRef carrying the expanded record.
func (r CodeRef[T]) WithFull(v T) CodeRef[T] {
	r.full = &v
	r.code = v.RefCode()
	r.set = true
	return r
}

// UnmarshalJSON accepts either a bare string (code-only) or a JSON object
// (the nested form).
func (r *CodeRef[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = CodeRef[T]{}
		return nil
	}

	var code string
	if err := json.Unmarshal(data, &code); err == nil {
		*r = CodeRef[T]{code: code, set: true}
		return nil
	}

	var full T
	if err := json.Unmarshal(data, &full); err != nil {
		return fmt.Errorf("coderef: value is neither a code nor an object: %w", err)
	}
	*r = CodeRef[T]{code: full.RefCode(), full: &full, set: true}
	return nil
}

// MarshalJSON always writes the code form.
func (r CodeRef[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.code)
}
