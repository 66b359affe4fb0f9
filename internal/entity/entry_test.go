package entity

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func testPerson() Person {
	return Person{
		Name:     "Alice Example",
		Email:    "alice@example.com",
		URI:      "https://jira.example.com/people/alice",
		Photo:    "https://jira.example.com/avatars/alice.png",
		Username: "alice",
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	content := `<a href="https://jira.example.com/browse/PROJ-1">click here</a>`
	entries := []Entry{
		{
			Author: testPerson(),
			Objects: []Object{
				Issue{ID: "urn:issue:1", Title: "PROJ-1", Summary: "Fix bug", Alternate: "https://jira.example.com/browse/PROJ-1"},
				Comment{ID: "urn:comment:7", Alternate: "https://jira.example.com/browse/PROJ-1#comment-7"},
			},
			Target:         Space{ID: "urn:space:DOC", Title: "Documentation", Alternate: "https://wiki.example.com/display/DOC"},
			Verbs:          []string{"http://activitystrea.ms/schema/1.0/post", "http://activitystrea.ms/schema/1.0/post"},
			Alternate:      "https://jira.example.com/browse/PROJ-1",
			Application:    "com.atlassian.jira",
			Content:        &content,
			ID:             "urn:entry:1",
			Published:      "2024-03-01T09:30:00.000Z",
			TimezoneOffset: "+0100",
			Title:          "alice commented on PROJ-1",
			Updated:        "2024-03-01T09:31:00.000Z",
		},
		{
			Author:         testPerson(),
			Alternate:      "https://fisheye.example.com/changelog/repo?cs=abc",
			Application:    "com.atlassian.fisheye",
			ID:             "urn:entry:2",
			Published:      "2024-03-01T11:00:00Z",
			TimezoneOffset: "+0000",
			Title:          "alice committed",
			Updated:        "2024-03-01T11:00:00Z",
		},
	}

	for _, want := range entries {
		data, err := Marshal(want)
		if err != nil {
			t.Fatalf("Marshal(%s): %v", want.ID, err)
		}
		got, err := Unmarshal(data)
		if err != nil {
			t.Fatalf("Unmarshal(%s): %v", want.ID, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip mismatch for %s:\n got  %+v\n want %+v", want.ID, got, want)
		}
	}
}

func TestMarshal_NoAuthor(t *testing.T) {
	_, err := Marshal(Entry{ID: "urn:entry:1"})
	var notFound *ElementNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *ElementNotFoundError, got %v", err)
	}
}

func TestUnmarshal_RevalidatesObjects(t *testing.T) {
	data, err := Marshal(Entry{Author: testPerson(), ID: "urn:entry:1"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	data = strings.Replace(data, TypePerson, "http://example.com/types/robot", 1)

	_, err = Unmarshal(data)
	var wrong *WrongObjectTypeError
	if !errors.As(err, &wrong) {
		t.Fatalf("expected *WrongObjectTypeError, got %v", err)
	}
}

func TestUnmarshal_Garbage(t *testing.T) {
	if _, err := Unmarshal("not json"); err == nil {
		t.Fatal("expected error for invalid stored entry")
	}
}

func TestNewObject(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]string
		want  Object
	}{
		{
			name:  "comment",
			props: map[string]string{PropObjectType: TypeComment, "id": "c1", "alternate": "https://x/c1"},
			want:  Comment{ID: "c1", Alternate: "https://x/c1"},
		},
		{
			name:  "file",
			props: map[string]string{PropObjectType: TypeFile, "id": "f1", "title": "notes.txt", "alternate": "https://x/f1"},
			want:  File{ID: "f1", Title: "notes.txt", Alternate: "https://x/f1"},
		},
		{
			name:  "changeset",
			props: map[string]string{PropObjectType: TypeChangeset, "id": "cs1", "title": "abc123", "alternate": "https://x/cs1"},
			want:  Changeset{ID: "cs1", Title: "abc123", Alternate: "https://x/cs1"},
		},
		{
			name:  "repository",
			props: map[string]string{PropObjectType: TypeRepository, "id": "r1", "title": "core", "alternate": "https://x/r1"},
			want:  Repository{ID: "r1", Title: "core", Alternate: "https://x/r1"},
		},
		{
			name:  "review",
			props: map[string]string{PropObjectType: TypeReview, "id": "cr1", "title": "CR-1", "summary": "Tidy", "alternate": "https://x/cr1"},
			want:  Review{ID: "cr1", Title: "CR-1", Summary: "Tidy", Alternate: "https://x/cr1"},
		},
		{
			name:  "page with extra properties",
			props: map[string]string{PropObjectType: TypePage, "id": "p1", "title": "Home", "alternate": "https://x/p1", "self": "ignored"},
			want:  Page{ID: "p1", Title: "Home", Alternate: "https://x/p1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewObject(tt.props)
			if err != nil {
				t.Fatalf("NewObject: %v", err)
			}
			if got != tt.want {
				t.Errorf("NewObject = %#v, want %#v", got, tt.want)
			}
			if got.String() != tt.want.String() {
				t.Errorf("String() = %q", got.String())
			}
		})
	}
}

func TestNewObject_Errors(t *testing.T) {
	if _, err := NewObject(map[string]string{"id": "x"}); !errors.Is(err, ErrMissingObjectType) {
		t.Errorf("missing type: got %v", err)
	}

	_, err := NewObject(map[string]string{PropObjectType: "urn:unknown"})
	var wrong *WrongObjectTypeError
	if !errors.As(err, &wrong) || wrong.ObjectType != "urn:unknown" {
		t.Errorf("unknown type: got %v", err)
	}

	_, err = NewObject(map[string]string{PropObjectType: TypePerson, "name": "Alice", "email": "a@x"})
	var notFound *ElementNotFoundError
	if !errors.As(err, &notFound) || notFound.Element != "uri" {
		t.Errorf("missing field: got %v", err)
	}
}
