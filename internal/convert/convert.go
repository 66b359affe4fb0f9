// Package convert turns entries into grouped notification messages using the
// configured ignore rules, activity rules and message templates.
package convert

import (
	"log/slog"
	"strings"

	"github.com/alfredjeanlab/standup/internal/entity"
)

// MaxMessages is the number of distinct messages kept per group.
const MaxMessages = 3

// Group is one notification bucket and its messages.
type Group struct {
	Name     string
	Messages []string
}

// Converter applies a rule set. It holds no mutable state and is safe for
// concurrent use.
type Converter struct {
	rules  Rules
	logger *slog.Logger
}

// New creates a Converter. A nil logger uses slog.Default().
func New(rules Rules, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{rules: rules, logger: logger}
}

// Convert groups the entries' messages. Groups are returned in the order
// they were first seen, each with at most MaxMessages distinct messages.
func (c *Converter) Convert(entries []entity.Entry) []Group {
	var order []string
	pools := make(map[string]*pool)

	for i := range entries {
		e := &entries[i]
		if c.ignored(e) {
			continue
		}

		keys, matched := c.entryGroups(e)
		if !matched {
			c.warnUnknown(e)
			continue
		}

		for _, kg := range keys {
			templates, ok := c.rules.Messages[kg.key]
			if !ok {
				c.logger.Warn("messages for key not found", "key", kg.key)
				continue
			}
			p, ok := pools[kg.group]
			if !ok {
				p = newPool()
				pools[kg.group] = p
				order = append(order, kg.group)
			}
			for _, t := range templates {
				p.push(t)
			}
		}
	}

	groups := make([]Group, 0, len(order))
	for _, name := range order {
		groups = append(groups, Group{Name: name, Messages: pools[name].first(MaxMessages)})
	}
	return groups
}

func (c *Converter) ignored(e *entity.Entry) bool {
	for _, ig := range c.rules.Ignore {
		if Matches(e, ig.Verbs, ig.Application) {
			return true
		}
	}
	return false
}

type keyGroup struct {
	key   string
	group string
}

// entryGroups resolves a group for every matching activity rule. A key seen
// twice keeps its position and takes the later resolved group. matched is
// false only when no rule matched at all.
func (c *Converter) entryGroups(e *entity.Entry) (keys []keyGroup, matched bool) {
	for _, rule := range c.rules.Activities {
		if !Matches(e, rule.Verbs, rule.Application) {
			continue
		}
		matched = true

		group, ok := resolveGroup(e, rule.Group)
		if !ok {
			c.logger.Debug("no group for entry", "entry_id", e.ID, "key", rule.Key, "group", rule.Group)
			continue
		}
		replaced := false
		for i := range keys {
			if keys[i].key == rule.Key {
				keys[i].group = group
				replaced = true
				break
			}
		}
		if !replaced {
			keys = append(keys, keyGroup{key: rule.Key, group: group})
		}
	}
	return keys, matched
}

func (c *Converter) warnUnknown(e *entity.Entry) {
	data, err := entity.Marshal(*e)
	if err != nil {
		c.logger.Warn("unknown verb list", "entry_id", e.ID, "verbs", e.Verbs)
		return
	}
	c.logger.Warn("unknown verb list", "entry_id", e.ID, "entry", data)
}

func resolveGroup(e *entity.Entry, kind GroupKind) (string, bool) {
	switch kind {
	case TargetIssue, TargetReview, TargetPage:
		if e.Target == nil {
			return "", false
		}
		return e.Target.String(), true
	case ObjectIssue:
		return firstObject(e, entity.KindIssue)
	case ObjectReview:
		return firstObject(e, entity.KindReview)
	case ObjectPage:
		return firstObject(e, entity.KindPage)
	case Content:
		if e.Content == nil {
			return "", false
		}
		return LinkText(*e.Content), true
	}
	return "", false
}

func firstObject(e *entity.Entry, kind entity.Kind) (string, bool) {
	for _, o := range e.Objects {
		if o.Kind() == kind {
			return o.String(), true
		}
	}
	return "", false
}

// LinkText returns the text of the first anchor in s: the text between the
// last '>' before the first "</a>" and that "</a>". Without a closing anchor,
// or without a '>' before it, s is returned unchanged.
func LinkText(s string) string {
	end := strings.Index(s, "</a>")
	if end < 0 {
		return s
	}
	start := strings.LastIndex(s[:end], ">")
	if start < 0 {
		return s
	}
	return s[start+1 : end]
}
