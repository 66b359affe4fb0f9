// Package entity holds the activity stream document model (Feed, Entry,
// Object) and the streaming reader that builds it from XML events.
package entity

// Kind identifies an Object variant.
type Kind string

const (
	KindComment    Kind = "comment"
	KindFile       Kind = "file"
	KindPerson     Kind = "person"
	KindChangeset  Kind = "changeset"
	KindIssue      Kind = "issue"
	KindRepository Kind = "repository"
	KindReview     Kind = "review"
	KindPage       Kind = "page"
	KindSpace      Kind = "space"
)

// object-type URIs as published by the feed.
const (
	TypeComment    = "http://activitystrea.ms/schema/1.0/comment"
	TypeFile       = "http://activitystrea.ms/schema/1.0/file"
	TypePerson     = "http://activitystrea.ms/schema/1.0/person"
	TypeChangeset  = "http://streams.atlassian.com/syndication/types/changeset"
	TypeIssue      = "http://streams.atlassian.com/syndication/types/issue"
	TypeRepository = "http://streams.atlassian.com/syndication/types/repository"
	TypeReview     = "http://streams.atlassian.com/syndication/types/review"
	TypePage       = "http://streams.atlassian.com/syndication/types/page"
	TypeSpace      = "http://streams.atlassian.com/syndication/types/space"
)

// PropObjectType is the property carrying an object's type URI.
const PropObjectType = "object-type"

// Object is something an activity was performed by, on, or against.
// The concrete types below are the only implementations.
type Object interface {
	// Kind reports the variant.
	Kind() Kind
	// String returns the display text used for grouping.
	String() string
	// properties returns the object's fields keyed the way the feed names
	// them, including the object-type URI.
	properties() map[string]string
}

type Comment struct {
	ID        string
	Alternate string
}

type File struct {
	ID        string
	Title     string
	Alternate string
}

type Person struct {
	Name     string
	Email    string
	URI      string
	Photo    string
	Username string
}

type Changeset struct {
	ID        string
	Title     string
	Alternate string
}

type Issue struct {
	ID        string
	Title     string
	Summary   string
	Alternate string
}

type Repository struct {
	ID        string
	Title     string
	Alternate string
}

type Review struct {
	ID        string
	Title     string
	Summary   string
	Alternate string
}

type Page struct {
	ID        string
	Title     string
	Alternate string
}

type Space struct {
	ID        string
	Title     string
	Alternate string
}

func (Comment) Kind() Kind    { return KindComment }
func (File) Kind() Kind       { return KindFile }
func (Person) Kind() Kind     { return KindPerson }
func (Changeset) Kind() Kind  { return KindChangeset }
func (Issue) Kind() Kind      { return KindIssue }
func (Repository) Kind() Kind { return KindRepository }
func (Review) Kind() Kind     { return KindReview }
func (Page) Kind() Kind       { return KindPage }
func (Space) Kind() Kind      { return KindSpace }

func (Comment) String() string      { return "comment" }
func (o File) String() string       { return o.Title }
func (o Person) String() string     { return o.Name }
func (o Changeset) String() string  { return o.Title }
func (o Issue) String() string      { return o.Title }
func (o Repository) String() string { return o.Title }
func (o Review) String() string     { return o.Title }
func (o Page) String() string       { return o.Title }
func (o Space) String() string      { return o.Title }

func (o Comment) properties() map[string]string {
	return map[string]string{PropObjectType: TypeComment, "id": o.ID, "alternate": o.Alternate}
}

func (o File) properties() map[string]string {
	return titled(TypeFile, o.ID, o.Title, o.Alternate)
}

func (o Person) properties() map[string]string {
	return map[string]string{
		PropObjectType: TypePerson,
		"name":         o.Name,
		"email":        o.Email,
		"uri":          o.URI,
		"photo":        o.Photo,
		"username":     o.Username,
	}
}

func (o Changeset) properties() map[string]string {
	return titled(TypeChangeset, o.ID, o.Title, o.Alternate)
}

func (o Issue) properties() map[string]string {
	p := titled(TypeIssue, o.ID, o.Title, o.Alternate)
	p["summary"] = o.Summary
	return p
}

func (o Repository) properties() map[string]string {
	return titled(TypeRepository, o.ID, o.Title, o.Alternate)
}

func (o Review) properties() map[string]string {
	p := titled(TypeReview, o.ID, o.Title, o.Alternate)
	p["summary"] = o.Summary
	return p
}

func (o Page) properties() map[string]string {
	return titled(TypePage, o.ID, o.Title, o.Alternate)
}

func (o Space) properties() map[string]string {
	return titled(TypeSpace, o.ID, o.Title, o.Alternate)
}

func titled(objectType, id, title, alternate string) map[string]string {
	return map[string]string{PropObjectType: objectType, "id": id, "title": title, "alternate": alternate}
}

// NewObject resolves a property map into an Object. The object-type property
// selects the variant and every field the variant requires must be present.
func NewObject(props map[string]string) (Object, error) {
	objectType, ok := props[PropObjectType]
	if !ok {
		return nil, ErrMissingObjectType
	}

	f := fields{props: props}
	var obj Object
	switch objectType {
	case TypeComment:
		obj = Comment{ID: f.get("id"), Alternate: f.get("alternate")}
	case TypeFile:
		obj = File{ID: f.get("id"), Title: f.get("title"), Alternate: f.get("alternate")}
	case TypePerson:
		obj = Person{
			Name:     f.get("name"),
			Email:    f.get("email"),
			URI:      f.get("uri"),
			Photo:    f.get("photo"),
			Username: f.get("username"),
		}
	case TypeChangeset:
		obj = Changeset{ID: f.get("id"), Title: f.get("title"), Alternate: f.get("alternate")}
	case TypeIssue:
		obj = Issue{ID: f.get("id"), Title: f.get("title"), Summary: f.get("summary"), Alternate: f.get("alternate")}
	case TypeRepository:
		obj = Repository{ID: f.get("id"), Title: f.get("title"), Alternate: f.get("alternate")}
	case TypeReview:
		obj = Review{ID: f.get("id"), Title: f.get("title"), Summary: f.get("summary"), Alternate: f.get("alternate")}
	case TypePage:
		obj = Page{ID: f.get("id"), Title: f.get("title"), Alternate: f.get("alternate")}
	case TypeSpace:
		obj = Space{ID: f.get("id"), Title: f.get("title"), Alternate: f.get("alternate")}
	default:
		return nil, &WrongObjectTypeError{ObjectType: objectType}
	}
	if f.missing != "" {
		return nil, &ElementNotFoundError{Element: f.missing}
	}
	return obj, nil
}

// fields reads required properties, remembering the first one absent.
type fields struct {
	props   map[string]string
	missing string
}

func (f *fields) get(name string) string {
	v, ok := f.props[name]
	if !ok && f.missing == "" {
		f.missing = name
	}
	return v
}
