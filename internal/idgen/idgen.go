// Package idgen generates short identifiers used to correlate the log lines
// and events of one polling round.
package idgen

import (
	"fmt"
	"strconv"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// RoundPrefix is prepended to every round ID.
const RoundPrefix = "rnd-"

const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	length   = 8
)

// NewRoundID returns a new round ID such as "rnd-4f9k2m0a".
func NewRoundID() (string, error) {
	id, err := nanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return RoundPrefix + id, nil
}

// RoundID is NewRoundID with a time-derived fallback, for callers that only
// need the ID for logging.
func RoundID() string {
	id, err := NewRoundID()
	if err != nil {
		return RoundPrefix + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return id
}
