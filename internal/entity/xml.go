package entity

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// EventKind distinguishes tokenizer events.
type EventKind int

const (
	StartElement EventKind = iota + 1
	EndElement
	Characters
)

// Attr is an attribute on a start element, by local name.
type Attr struct {
	Name  string
	Value string
}

// Event is a single tokenizer event. Name is the element's local name for
// start and end events; Text is set for character events.
type Event struct {
	Kind  EventKind
	Name  string
	Attrs []Attr
	Text  string
}

// Attr returns the value of the named attribute.
func (e Event) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// EventReader yields tokenizer events lazily. Next returns io.EOF once the
// document is exhausted; any other error is a malformed-document error.
type EventReader interface {
	Next() (Event, error)
}

// xmlReader adapts encoding/xml to EventReader. Adjacent text and CDATA runs
// are reported as one Characters event and whitespace-only runs are dropped.
type xmlReader struct {
	dec     *xml.Decoder
	pending *Event
	err     error
}

// NewXMLReader returns an EventReader over an XML byte stream.
func NewXMLReader(r io.Reader) EventReader {
	return &xmlReader{dec: xml.NewDecoder(r)}
}

func (x *xmlReader) Next() (Event, error) {
	if x.pending != nil {
		ev := *x.pending
		x.pending = nil
		return ev, nil
	}
	if x.err != nil {
		return Event{}, x.err
	}

	var text strings.Builder
	for {
		tok, err := x.dec.Token()
		if err != nil {
			x.err = err
			if errors.Is(err, io.EOF) && text.Len() > 0 {
				// Unterminated trailing text still counts as an event; the
				// decoder reports EOF on the following call.
				if ev, ok := charactersEvent(text.String()); ok {
					return ev, nil
				}
			}
			return Event{}, err
		}

		var ev Event
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
			continue
		case xml.StartElement:
			ev = Event{Kind: StartElement, Name: t.Name.Local}
			for _, a := range t.Attr {
				ev.Attrs = append(ev.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
		case xml.EndElement:
			ev = Event{Kind: EndElement, Name: t.Name.Local}
		default:
			// Comments, processing instructions and directives.
			continue
		}

		if chars, ok := charactersEvent(text.String()); ok {
			x.pending = &ev
			return chars, nil
		}
		return ev, nil
	}
}

func charactersEvent(s string) (Event, bool) {
	if strings.TrimSpace(s) == "" {
		return Event{}, false
	}
	return Event{Kind: Characters, Text: s}, true
}
