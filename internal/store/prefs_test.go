package store

import (
	"context"
	"testing"
)

func TestGetPreferencesDefaults(t *testing.T) {
	s := newTestStore(t)

	p, err := s.GetPreferences(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if p.DefaultIntelligenceLevel != "super" || p.PreferredResponseStyle != "detailed" {
		t.Errorf("unexpected defaults: %+v", p)
	}
}

func TestUpdatePreferencesPartial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	style := "concise"
	p, err := s.UpdatePreferences(ctx, "u1", PreferenceUpdate{PreferredResponseStyle: &style})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.PreferredResponseStyle != "concise" {
		t.Errorf("expected style concise, got %q", p.PreferredResponseStyle)
	}
	if p.DefaultIntelligenceLevel != "super" {
		t.Errorf("expected untouched level, got %q", p.DefaultIntelligenceLevel)
	}

	level := "nano"
	p, err = s.UpdatePreferences(ctx, "u1", PreferenceUpdate{DefaultIntelligenceLevel: &level})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.DefaultIntelligenceLevel != "nano" || p.PreferredResponseStyle != "concise" {
		t.Errorf("unexpected preferences after second update: %+v", p)
	}
}

func TestUpdatePreferencesValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	bad := "brilliant"
	if _, err := s.UpdatePreferences(ctx, "u1", PreferenceUpdate{DefaultIntelligenceLevel: &bad}); err == nil {
		t.Error("expected error for invalid intelligence level")
	}
	if _, err := s.UpdatePreferences(ctx, "u1", PreferenceUpdate{PreferredResponseStyle: &bad}); err == nil {
		t.Error("expected error for invalid response style")
	}
}
