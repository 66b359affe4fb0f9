package entity

import (
	"errors"
	"io"
	"log/slog"
)

// Read parses an activity stream document.
func Read(r io.Reader) (*Feed, error) {
	return ReadFeed(NewXMLReader(r))
}

// ReadFeed reads a feed from the event stream. The first start element is
// the feed root; the feed ends when its depth returns to zero. An entry that
// fails to read fails the whole feed.
func ReadFeed(it EventReader) (*Feed, error) {
	slog.Debug("reading feed")

	var entries []Entry
	props := make(map[string]string, 8)
	name := ""
	depth := 0

loop:
	for {
		ev, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &XMLEventError{Err: err}
		}

		switch ev.Kind {
		case StartElement:
			switch {
			case depth == 0:
				name = ev.Name
				depth = 1
			case ev.Name == "entry":
				entry, err := ReadEntry(it)
				if err != nil {
					return nil, &ReadEntryError{Index: len(entries), Err: err}
				}
				entries = append(entries, *entry)
			case ev.Name == "link":
				// Text inside a link is kept under "link" so it cannot
				// overwrite the preceding field.
				readLink(ev, props)
				name = "link"
				depth++
			default:
				name = ev.Name
				depth++
			}
		case EndElement:
			depth--
			if depth <= 0 {
				break loop
			}
		case Characters:
			if depth == 2 {
				props[name] = ev.Text
			}
		}
	}

	f := fields{props: props}
	feed := &Feed{
		ID:             f.get("id"),
		Title:          f.get("title"),
		TimezoneOffset: f.get("timezone-offset"),
		Updated:        f.get("updated"),
		Entries:        entries,
	}
	if f.missing != "" {
		return nil, &ElementNotFoundError{Element: f.missing}
	}

	slog.Debug("feed complete", "feed_id", feed.ID, "entries", len(entries))
	return feed, nil
}

// ReadEntry reads one entry whose start element has already been consumed.
func ReadEntry(it EventReader) (*Entry, error) {
	var (
		author  Object
		objects []Object
		target  Object
		verbs   []string
	)
	props := make(map[string]string, 8)
	name := "entry"
	depth := 1

loop:
	for {
		ev, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &XMLEventError{Err: err}
		}

		switch ev.Kind {
		case StartElement:
			switch ev.Name {
			case "author", "object", "target":
				obj, err := NewObject(ReadProperties(ev.Name, it))
				if err != nil {
					return nil, &ReadObjectError{Element: ev.Name, Err: err}
				}
				switch ev.Name {
				case "author":
					author = obj
				case "object":
					objects = append(objects, obj)
				case "target":
					target = obj
				}
			case "link":
				readLink(ev, props)
				name = "link"
				depth++
			default:
				name = ev.Name
				depth++
			}
		case EndElement:
			depth--
			if depth <= 0 {
				break loop
			}
		case Characters:
			if depth != 2 {
				continue
			}
			if name == "verb" {
				verbs = append(verbs, ev.Text)
			} else {
				props[name] = ev.Text
			}
		}
	}

	if author == nil {
		return nil, &ElementNotFoundError{Element: "author"}
	}
	f := fields{props: props}
	entry := &Entry{
		Author:         author,
		Objects:        objects,
		Target:         target,
		Verbs:          verbs,
		Alternate:      f.get("alternate"),
		Application:    f.get("application"),
		ID:             f.get("id"),
		Published:      f.get("published"),
		TimezoneOffset: f.get("timezone-offset"),
		Title:          f.get("title"),
		Updated:        f.get("updated"),
	}
	if f.missing != "" {
		return nil, &ElementNotFoundError{Element: f.missing}
	}
	if content, ok := props["content"]; ok {
		entry.Content = &content
	}

	slog.Debug("entry complete", "entry_id", entry.ID, "verbs", verbs)
	return entry, nil
}

// ReadProperties collects child text keyed by the most recent start element
// name, plus link rel/href pairs (text inside a link is keyed "link"), until an end element named element. It does
// not track depth, so a nested element with the same name ends the read.
// Tokenizer errors end the read and are logged, not returned.
func ReadProperties(element string, it EventReader) map[string]string {
	props := make(map[string]string, 8)
	current := ""

	for {
		ev, err := it.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Error("failed to read next event", "element", element, "err", err)
			}
			return props
		}

		switch ev.Kind {
		case StartElement:
			if ev.Name == "link" {
				readLink(ev, props)
			}
			current = ev.Name
		case EndElement:
			if ev.Name == element {
				return props
			}
		case Characters:
			props[current] = ev.Text
		}
	}
}

func readLink(ev Event, props map[string]string) {
	rel, okRel := ev.Attr("rel")
	href, okHref := ev.Attr("href")
	if okRel && okHref {
		props[rel] = href
	}
}
