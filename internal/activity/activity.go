// Package activity renders a member's stored activity for a day into status
// lines.
package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/standup/internal/convert"
	"github.com/alfredjeanlab/standup/internal/entity"
	"github.com/alfredjeanlab/standup/internal/store"
)

// Window is the length of the reporting window in seconds.
const Window int64 = 24 * 60 * 60

// Service answers activity queries from the store.
type Service struct {
	store     store.Store
	converter *convert.Converter
	members   []string
}

// NewService creates a Service over the given members.
func NewService(s store.Store, c *convert.Converter, members []string) *Service {
	return &Service{store: s, converter: c, members: members}
}

// Activity returns, for every member with activity in [since, since+Window),
// one status line per group: the group's messages joined by ", ", then
// " - " and the group name. Members without any group are left out.
func (s *Service) Activity(ctx context.Context, since int64) (map[string][]string, error) {
	result := make(map[string][]string, len(s.members))

	for _, member := range s.members {
		rows, err := s.store.PublishedBetween(ctx, member, since, since+Window)
		if err != nil {
			return nil, fmt.Errorf("load activity for %s: %w", member, err)
		}

		entries := make([]entity.Entry, 0, len(rows))
		for _, data := range rows {
			e, err := entity.Unmarshal(data)
			if err != nil {
				return nil, fmt.Errorf("decode stored entry for %s: %w", member, err)
			}
			entries = append(entries, e)
		}

		groups := s.converter.Convert(entries)
		if len(groups) == 0 {
			continue
		}
		lines := make([]string, 0, len(groups))
		for _, g := range groups {
			lines = append(lines, StatusLine(g))
		}
		result[member] = lines
	}

	return result, nil
}

// StatusLine formats a group as "<messages joined by ", "> - <group>".
func StatusLine(g convert.Group) string {
	return strings.Join(g.Messages, ", ") + " - " + g.Name
}
