package state

import (
	"encoding/json"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Encode writes els as an indented JSON array of element records.
func Encode(w io.Writer, els []Element) error {
	data, err := json.MarshalIndent(els, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode elements")
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "write elements")
	}
	return nil
}

// record is an element as stored; a record without opacity is fully opaque.
type record struct {
	Element
	Opacity *float64 `json:"opacity"`
}

// Decode reads a JSON array of element records. Records whose payload does
// not match their kind, and strokes with fewer than two points, are skipped
// with a warning rather than failing the whole load.
func Decode(r io.Reader, logger hclog.Logger) ([]Element, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read elements")
	}
	var raw []record
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse elements")
	}

	els := make([]Element, 0, len(raw))
	for _, r := range raw {
		e := r.Element
		e.Opacity = 1
		if r.Opacity != nil {
			e.Opacity = *r.Opacity
		}
		if !e.Valid() || (e.Kind == KindStroke && len(e.Stroke.Points) < 2) {
			logger.Warn("skipping invalid element record", "id", e.ID, "kind", e.Kind)
			continue
		}
		if e.ID == "" {
			e.ID = NewID()
		}
		els = append(els, e)
	}
	return els, nil
}
