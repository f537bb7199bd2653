package services

import (
	"context"
	"errors"
	"fmt"

	"artastic/internal/apperr"
	"artastic/internal/notify"
	"artastic/internal/redis"
)

const PreferenceTheme = "theme"

// PreferenceStore keeps opaque string preferences. *redis.Client implements it.
type PreferenceStore interface {
	GetPreference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error
}

type preferenceSpec struct {
	fallback string
	allowed  []string
}

var preferenceSpecs = map[string]preferenceSpec{
	PreferenceTheme:      {fallback: "light", allowed: []string{"light", "dark"}},
	notify.PreferenceKey: {fallback: "true", allowed: []string{"true", "false"}},
}

// PreferenceService reads and writes the two persisted user flags. It also
// serves as notify.Preferences for the WhatsApp notifier.
type PreferenceService struct {
	store PreferenceStore
}

func NewPreferenceService(store PreferenceStore) *PreferenceService {
	return &PreferenceService{store: store}
}

// Get returns the stored value, or the default when nothing was stored yet.
func (s *PreferenceService) Get(ctx context.Context, key string) (string, error) {
	spec, ok := preferenceSpecs[key]
	if !ok {
		return "", &apperr.NotFoundError{Entity: "preference", ID: key}
	}
	value, err := s.store.GetPreference(ctx, key)
	if errors.Is(err, redis.ErrNotFound) {
		return spec.fallback, nil
	}
	if err != nil {
		return "", &apperr.FetchError{Entity: "preference", Err: err}
	}
	return value, nil
}

func (s *PreferenceService) Set(ctx context.Context, key, value string) error {
	spec, ok := preferenceSpecs[key]
	if !ok {
		return &apperr.NotFoundError{Entity: "preference", ID: key}
	}
	valid := false
	for _, allowed := range spec.allowed {
		if value == allowed {
			valid = true
			break
		}
	}
	if !valid {
		return apperr.Invalid("value", fmt.Sprintf("Valor inválido para %s", key))
	}
	if err := s.store.SetPreference(ctx, key, value); err != nil {
		return &apperr.WriteError{Entity: "preference", Op: "update", Err: err}
	}
	return nil
}
