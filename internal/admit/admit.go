// Package admit decides whether an extracted candidate becomes a
// persisted memory.
package admit

import (
	"strings"

	"github.com/hazoom/assistant-memory/internal/model"
)

// Reason codes returned by ShouldStore. Rejections come first in the
// rule chain, so explicit high-value signals always win over noise while
// low-confidence auto-extracted facts are suppressed by default.
const (
	ReasonDuplicateKey   = "duplicate key"
	ReasonValueTooShort  = "value too short"
	ReasonLowImportance  = "low-importance auto-extracted fact"
	ReasonHighImportance = "high importance"
	ReasonExplicit       = "explicit request"
	ReasonPreference     = "preference"
	ReasonDefault        = "default"
)

// ShouldStore evaluates the admission rule chain for a candidate against
// the caller's set of active memory keys. First matching rule wins. The
// decision is deterministic for equal inputs.
func ShouldStore(c model.Candidate, existingKeys map[string]bool) (bool, string) {
	if existingKeys[c.Key] {
		return false, ReasonDuplicateKey
	}
	if len(strings.TrimSpace(c.Value)) < 2 {
		return false, ReasonValueTooShort
	}
	if c.MemoryType == "fact" && c.Importance < 5 && !c.HasTag("explicit") {
		return false, ReasonLowImportance
	}
	if c.Importance >= 8 {
		return true, ReasonHighImportance
	}
	if c.HasTag("explicit") {
		return true, ReasonExplicit
	}
	if c.MemoryType == "preference" {
		return true, ReasonPreference
	}
	return true, ReasonDefault
}
