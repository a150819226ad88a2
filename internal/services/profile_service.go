package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"kharcha/internal/core"
	"kharcha/internal/storage"
)

// ProfileService reads and updates the display name shown in the UI.
type ProfileService struct {
	store storage.ProfileStore
}

// NewProfileService creates the service.
func NewProfileService(store storage.ProfileStore) *ProfileService {
	return &ProfileService{store: store}
}

// Load returns the user's profile.
func (s *ProfileService) Load(ctx context.Context, userID string) (core.Profile, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return core.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// LoadName returns the display name, falling back to the default when the
// profile is missing or the stored name is blank.
func (s *ProfileService) LoadName(ctx context.Context, userID string) string {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			slog.ErrorContext(ctx, "Failed to load profile", "user_id", userID, "error", err)
		}
		return core.DefaultProfileName
	}
	if strings.TrimSpace(profile.Name) == "" {
		return core.DefaultProfileName
	}
	return profile.Name
}

// Rename changes the display name. Blank names are rejected and the stored
// value stays untouched.
func (s *ProfileService) Rename(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if err := core.ValidateProfileName(name); err != nil {
		return err
	}
	if err := s.store.UpdateProfileName(ctx, userID, name); err != nil {
		return fmt.Errorf("rename profile: %w", err)
	}

	slog.InfoContext(ctx, "profile renamed", "user_id", userID)
	return nil
}
