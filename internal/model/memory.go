// Package model defines the core memory data types.
package model

import "time"

// MemoryRecord is a persisted, keyed, importance-scored fact about a user.
// (user_identifier, key) identifies at most one active logical memory.
type MemoryRecord struct {
	ID             string            `json:"id"`
	UserIdentifier string            `json:"user_identifier"`
	Key            string            `json:"key"`
	Value          string            `json:"value"`
	MemoryType     string            `json:"memory_type"`
	Description    string            `json:"description,omitempty"`
	Importance     int               `json:"importance"`
	Tags           []string          `json:"tags,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	AccessCount    int               `json:"access_count"`
	LastAccessed   *time.Time        `json:"last_accessed,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	IsActive       bool              `json:"is_active"`
}

// Candidate is a transient extraction result awaiting an admission
// decision. It is never persisted as-is.
type Candidate struct {
	Key         string   `json:"key"`
	Value       string   `json:"value"`
	MemoryType  string   `json:"memory_type"`
	Importance  int      `json:"importance"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
}

// HasTag reports whether the candidate carries the given tag.
func (c Candidate) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ValidMemoryTypes are the allowed memory types.
var ValidMemoryTypes = map[string]bool{
	"fact":       true,
	"preference": true,
	"context":    true,
	"knowledge":  true,
	"system":     true,
}
