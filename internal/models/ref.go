package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Referent is implemented by profile types that may appear embedded in a Ref.
type Referent interface {
	RefID() int64
	Label() string
}

// Ref holds a reference that the backend serves either as a bare numeric id or
// as an embedded profile object. Callers that need a display name go through
// DisplayName instead of inspecting the shape themselves.
type Ref[T Referent] struct {
	ID       int64
	Embedded *T
}

func RefByID[T Referent](id int64) Ref[T] {
	return Ref[T]{ID: id}
}

func RefEmbedded[T Referent](v T) Ref[T] {
	return Ref[T]{ID: v.RefID(), Embedded: &v}
}

func (r Ref[T]) DisplayName() string {
	if r.Embedded != nil {
		if label := (*r.Embedded).Label(); label != "" {
			return label
		}
	}
	return "#" + strconv.FormatInt(r.ID, 10)
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.Embedded != nil {
		return json.Marshal(r.Embedded)
	}
	return json.Marshal(r.ID)
}

func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var v T
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		r.ID = v.RefID()
		r.Embedded = &v
		return nil
	}
	r.Embedded = nil
	return json.Unmarshal(trimmed, &r.ID)
}
