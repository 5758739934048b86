package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazoom/assistant-memory/internal/model"
)

// PreferenceUpdate holds the fields of a partial preference update.
// Nil fields are left untouched.
type PreferenceUpdate struct {
	DefaultIntelligenceLevel *string
	PreferredResponseStyle   *string
	NotificationSettings     map[string]string
	UIPreferences            map[string]string
	PrivacySettings          map[string]string
}

// GetPreferences returns the user's preference row, creating it with
// defaults on first access.
func (s *SQLiteStore) GetPreferences(ctx context.Context, userIdentifier string) (*model.UserPreference, error) {
	now := time.Now().UTC().Format(timeFormat)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (user_identifier, default_intelligence_level, preferred_response_style, created_at, updated_at)
		 VALUES (?, 'super', 'detailed', ?, ?)
		 ON CONFLICT(user_identifier) DO NOTHING`,
		userIdentifier, now, now)
	if err != nil {
		return nil, fmt.Errorf("create preferences: %w", err)
	}
	return s.readPreferences(ctx, userIdentifier)
}

// UpdatePreferences applies a partial update to the user's preferences.
func (s *SQLiteStore) UpdatePreferences(ctx context.Context, userIdentifier string, u PreferenceUpdate) (*model.UserPreference, error) {
	if _, err := s.GetPreferences(ctx, userIdentifier); err != nil {
		return nil, err
	}

	if u.DefaultIntelligenceLevel != nil && !model.ValidIntelligenceLevels[*u.DefaultIntelligenceLevel] {
		return nil, fmt.Errorf("update preferences: invalid intelligence level %q", *u.DefaultIntelligenceLevel)
	}
	if u.PreferredResponseStyle != nil && !model.ValidResponseStyles[*u.PreferredResponseStyle] {
		return nil, fmt.Errorf("update preferences: invalid response style %q", *u.PreferredResponseStyle)
	}

	set := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC().Format(timeFormat)}

	if u.DefaultIntelligenceLevel != nil {
		set = append(set, "default_intelligence_level = ?")
		args = append(args, *u.DefaultIntelligenceLevel)
	}
	if u.PreferredResponseStyle != nil {
		set = append(set, "preferred_response_style = ?")
		args = append(args, *u.PreferredResponseStyle)
	}
	if u.NotificationSettings != nil {
		set = append(set, "notification_settings = ?")
		args = append(args, marshalMap(u.NotificationSettings))
	}
	if u.UIPreferences != nil {
		set = append(set, "ui_preferences = ?")
		args = append(args, marshalMap(u.UIPreferences))
	}
	if u.PrivacySettings != nil {
		set = append(set, "privacy_settings = ?")
		args = append(args, marshalMap(u.PrivacySettings))
	}

	query := "UPDATE preferences SET "
	for i, clause := range set {
		if i > 0 {
			query += ", "
		}
		query += clause
	}
	query += " WHERE user_identifier = ?"
	args = append(args, userIdentifier)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return s.readPreferences(ctx, userIdentifier)
}

func (s *SQLiteStore) readPreferences(ctx context.Context, userIdentifier string) (*model.UserPreference, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_identifier, default_intelligence_level, preferred_response_style,
		        notification_settings, ui_preferences, privacy_settings, created_at, updated_at
		 FROM preferences WHERE user_identifier = ?`, userIdentifier)

	var p model.UserPreference
	var notif, ui, privacy sql.NullString
	var createdAt, updatedAt string
	err := row.Scan(&p.UserIdentifier, &p.DefaultIntelligenceLevel, &p.PreferredResponseStyle,
		&notif, &ui, &privacy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if notif.Valid {
		unmarshalMap(notif.String, &p.NotificationSettings)
	}
	if ui.Valid {
		unmarshalMap(ui.String, &p.UIPreferences)
	}
	if privacy.Valid {
		unmarshalMap(privacy.String, &p.PrivacySettings)
	}
	return &p, nil
}
