package model

import "time"

// ConversationSession groups the messages of one conversation.
type ConversationSession struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	UserIdentifier    string    `json:"user_identifier"`
	StartedAt         time.Time `json:"started_at"`
	LastActive        time.Time `json:"last_active"`
	IntelligenceLevel string    `json:"intelligence_level"`
	TotalMessages     int       `json:"total_messages"`
	IsActive          bool      `json:"is_active"`
}

// Message is a single conversation turn owned by a session.
type Message struct {
	ID         string            `json:"id"`
	SessionID  string            `json:"session_id"`
	Role       string            `json:"role"`
	Content    string            `json:"content"`
	Timestamp  time.Time         `json:"timestamp"`
	TokenCount int               `json:"token_count,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// UserPreference holds per-user settings, one row per user.
type UserPreference struct {
	UserIdentifier           string            `json:"user_identifier"`
	DefaultIntelligenceLevel string            `json:"default_intelligence_level"`
	PreferredResponseStyle   string            `json:"preferred_response_style"`
	NotificationSettings     map[string]string `json:"notification_settings,omitempty"`
	UIPreferences            map[string]string `json:"ui_preferences,omitempty"`
	PrivacySettings          map[string]string `json:"privacy_settings,omitempty"`
	CreatedAt                time.Time         `json:"created_at"`
	UpdatedAt                time.Time         `json:"updated_at"`
}

// KnowledgeEntry is a global (non user-scoped) reference document whose
// relevance is reinforced on every search hit.
type KnowledgeEntry struct {
	ID             string    `json:"id"`
	Category       string    `json:"category"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Summary        string    `json:"summary,omitempty"`
	Keywords       []string  `json:"keywords,omitempty"`
	Source         string    `json:"source,omitempty"`
	RelevanceScore float64   `json:"relevance_score"`
	AccessCount    int       `json:"access_count"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ValidRoles are the allowed message roles.
var ValidRoles = map[string]bool{
	"user":      true,
	"assistant": true,
	"system":    true,
}

// ValidIntelligenceLevels are the allowed generator routing tiers.
var ValidIntelligenceLevels = map[string]bool{
	"nano":     true,
	"standard": true,
	"super":    true,
	"quantum":  true,
}

// ValidResponseStyles are the allowed response style preferences.
var ValidResponseStyles = map[string]bool{
	"concise":   true,
	"detailed":  true,
	"technical": true,
	"casual":    true,
	"quantum":   true,
}
