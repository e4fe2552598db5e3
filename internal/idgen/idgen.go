// Package idgen produces the identifiers used by authkeeper: UUIDs for users
// and refresh tokens, snowflake IDs for session rows and KSUIDs for request
// correlation.
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// NewUUID returns a random (version 4) UUID string.
func NewUUID() string {
	return uuid.NewString()
}

// IsUUID reports whether s parses as a UUID.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// NewRequestID returns a time-sortable KSUID string.
func NewRequestID() string {
	return ksuid.New().String()
}

// Snowflake generates int64 IDs unique per node. Safe for concurrent use.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a generator for node, which must be within 0..1023.
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &Snowflake{node: n}, nil
}

func (s *Snowflake) Next() int64 {
	return s.node.Generate().Int64()
}
