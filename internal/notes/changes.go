package notes

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
)

const msgInvalidUpdates = "Invalid updates"

// Changes is the closed set of fields an update may touch. A nil field is
// left as stored.
type Changes struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// DecodeChanges parses an update body. Any key other than title or content,
// a non-string value, trailing data or an empty title is rejected.
func DecodeChanges(data []byte) (Changes, error) {
	var ch Changes
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ch); err != nil {
		return Changes{}, apperr.Validation(msgInvalidUpdates)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Changes{}, apperr.Validation(msgInvalidUpdates)
	}
	if err := ch.Validate(); err != nil {
		return Changes{}, err
	}
	return ch, nil
}

// Validate checks that a provided title is not blank.
func (c Changes) Validate() error {
	if c.Title != nil && strings.TrimSpace(*c.Title) == "" {
		return apperr.Validation(msgInvalidUpdates)
	}
	return nil
}

// IsEmpty reports whether no field was provided.
func (c Changes) IsEmpty() bool {
	return c.Title == nil && c.Content == nil
}

func (c Changes) apply(n *models.Note) {
	if c.Title != nil {
		n.Title = *c.Title
	}
	if c.Content != nil {
		n.Content = *c.Content
	}
}
