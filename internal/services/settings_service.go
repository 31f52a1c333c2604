package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smartspend/internal/core"
	"smartspend/internal/store"
)

type SettingsService struct {
	repo store.SettingsRepository
	opts Options
}

func NewSettingsService(repo store.SettingsRepository, opts Options) *SettingsService {
	return &SettingsService{repo: repo, opts: opts.withDefaults()}
}

// Get returns the saved settings, or the defaults when the user never saved any.
func (s *SettingsService) Get(ctx context.Context, userID string) (core.Settings, error) {
	if err := requireUser(userID); err != nil {
		return core.Settings{}, err
	}
	st, err := s.repo.GetSettings(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return core.DefaultSettings(userID), nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

func (s *SettingsService) Save(ctx context.Context, st core.Settings) (core.Settings, error) {
	st.Name = strings.TrimSpace(st.Name)
	st.Email = strings.TrimSpace(st.Email)
	st.Currency = core.Currency(strings.ToLower(string(st.Currency)))
	if st.Currency == "" {
		st.Currency = core.DefaultSettings(st.UserID).Currency
	}
	if err := st.Validate(); err != nil {
		return core.Settings{}, err
	}
	if err := s.repo.SaveSettings(ctx, st); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.opts.Logger.InfoContext(ctx, "Settings saved", "user_id", st.UserID, "currency", st.Currency)
	return st, nil
}
