package convert

import (
	"fmt"
	"slices"

	"github.com/alfredjeanlab/standup/internal/entity"
)

// GroupKind selects how an entry's group name is resolved.
type GroupKind string

const (
	TargetIssue  GroupKind = "TargetIssue"
	TargetReview GroupKind = "TargetReview"
	TargetPage   GroupKind = "TargetPage"
	ObjectIssue  GroupKind = "ObjectIssue"
	ObjectReview GroupKind = "ObjectReview"
	ObjectPage   GroupKind = "ObjectPage"
	Content      GroupKind = "Content"
)

var groupKinds = []GroupKind{TargetIssue, TargetReview, TargetPage, ObjectIssue, ObjectReview, ObjectPage, Content}

// Valid reports whether k is a known group kind.
func (k GroupKind) Valid() bool {
	return slices.Contains(groupKinds, k)
}

// IgnoreRule drops entries whose verbs (and application, when set) match.
type IgnoreRule struct {
	Application string   `yaml:"application,omitempty" json:"application,omitempty"`
	Verbs       []string `yaml:"verbs" json:"verbs"`
}

// ActivityRule files matching entries under Key, grouped by Group.
type ActivityRule struct {
	Application string    `yaml:"application,omitempty" json:"application,omitempty"`
	Key         string    `yaml:"key" json:"key"`
	Group       GroupKind `yaml:"group" json:"group"`
	Verbs       []string  `yaml:"verbs" json:"verbs"`
}

// Rules is the full rule set. Messages maps an activity key to its
// templates, in order.
type Rules struct {
	Ignore     []IgnoreRule        `yaml:"ignore" json:"ignore"`
	Activities []ActivityRule      `yaml:"activities" json:"activities"`
	Messages   map[string][]string `yaml:"messages" json:"messages"`
}

// Validate checks that every activity rule names a key and a known group.
func (r Rules) Validate() error {
	for i, a := range r.Activities {
		if a.Key == "" {
			return fmt.Errorf("activities[%d]: key is required", i)
		}
		if !a.Group.Valid() {
			return fmt.Errorf("activities[%d] (%s): unknown group %q", i, a.Key, a.Group)
		}
	}
	return nil
}

// Matches reports whether the entry's verb list equals verbs exactly and,
// when application is non-empty, the entry's application equals it.
func Matches(e *entity.Entry, verbs []string, application string) bool {
	if !slices.Equal(e.Verbs, verbs) {
		return false
	}
	return application == "" || application == e.Application
}
