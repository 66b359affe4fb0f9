package entity

import (
	"encoding/json"
	"fmt"
)

// Entry is one activity event from a feed. Entries are treated as immutable
// once read; ID is the natural key.
type Entry struct {
	Author  Object
	Objects []Object
	Target  Object // nil when the entry has no target

	// Verbs keeps document order and duplicates; the whole list is a match key.
	Verbs []string

	Alternate      string
	Application    string
	Content        *string // nil when the entry has no content element
	ID             string
	Published      string
	TimezoneOffset string
	Title          string
	Updated        string
}

// Feed is a parsed activity stream document.
type Feed struct {
	ID             string
	Title          string
	TimezoneOffset string
	Updated        string
	Entries        []Entry
}

// entryJSON is the stored form of an Entry. Objects are kept as their
// property maps so decoding goes back through NewObject.
type entryJSON struct {
	Author         map[string]string   `json:"author"`
	Objects        []map[string]string `json:"objects,omitempty"`
	Target         map[string]string   `json:"target,omitempty"`
	Verbs          []string            `json:"verbs"`
	Alternate      string              `json:"alternate"`
	Application    string              `json:"application"`
	Content        *string             `json:"content,omitempty"`
	ID             string              `json:"id"`
	Published      string              `json:"published"`
	TimezoneOffset string              `json:"timezone_offset"`
	Title          string              `json:"title"`
	Updated        string              `json:"updated"`
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Author == nil {
		return nil, fmt.Errorf("marshal entry %s: %w", e.ID, &ElementNotFoundError{Element: "author"})
	}
	w := entryJSON{
		Author:         e.Author.properties(),
		Verbs:          e.Verbs,
		Alternate:      e.Alternate,
		Application:    e.Application,
		Content:        e.Content,
		ID:             e.ID,
		Published:      e.Published,
		TimezoneOffset: e.TimezoneOffset,
		Title:          e.Title,
		Updated:        e.Updated,
	}
	for _, o := range e.Objects {
		w.Objects = append(w.Objects, o.properties())
	}
	if e.Target != nil {
		w.Target = e.Target.properties()
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Objects are re-validated.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w entryJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Author == nil {
		return &ElementNotFoundError{Element: "author"}
	}
	author, err := NewObject(w.Author)
	if err != nil {
		return &ReadObjectError{Element: "author", Err: err}
	}
	var objects []Object
	for _, props := range w.Objects {
		o, err := NewObject(props)
		if err != nil {
			return &ReadObjectError{Element: "object", Err: err}
		}
		objects = append(objects, o)
	}
	var target Object
	if w.Target != nil {
		if target, err = NewObject(w.Target); err != nil {
			return &ReadObjectError{Element: "target", Err: err}
		}
	}

	*e = Entry{
		Author:         author,
		Objects:        objects,
		Target:         target,
		Verbs:          w.Verbs,
		Alternate:      w.Alternate,
		Application:    w.Application,
		Content:        w.Content,
		ID:             w.ID,
		Published:      w.Published,
		TimezoneOffset: w.TimezoneOffset,
		Title:          w.Title,
		Updated:        w.Updated,
	}
	return nil
}

// Marshal serializes an entry to its stored form.
func Marshal(e Entry) (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Unmarshal parses an entry from its stored form.
func Unmarshal(data string) (Entry, error) {
	var e Entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}
