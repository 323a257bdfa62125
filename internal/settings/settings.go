// Package settings keeps the user's display preferences.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/at-ishikawa/studydesk/internal/storage"
)

type FontScale string

const (
	FontScaleSmall  FontScale = "sm"
	FontScaleMedium FontScale = "md"
	FontScaleLarge  FontScale = "lg"
)

var fontScaleSizes = map[FontScale]string{
	FontScaleSmall:  "14px",
	FontScaleMedium: "16px",
	FontScaleLarge:  "18px",
}

// FontScales lists the valid scales from smallest to largest.
func FontScales() []FontScale {
	return []FontScale{FontScaleSmall, FontScaleMedium, FontScaleLarge}
}

func ParseFontScale(value string) (FontScale, error) {
	scale := FontScale(value)
	if _, ok := fontScaleSizes[scale]; !ok {
		return "", fmt.Errorf("invalid font scale %q, must be one of sm, md, lg", value)
	}
	return scale, nil
}

// CSSSize is the base font size used when rendering a note document.
func (s FontScale) CSSSize() string {
	if size, ok := fontScaleSizes[s]; ok {
		return size
	}
	return fontScaleSizes[FontScaleMedium]
}

// String, Set and Type let FontScale be used as a pflag.Value.
func (s *FontScale) String() string {
	return string(*s)
}

func (s *FontScale) Set(value string) error {
	scale, err := ParseFontScale(value)
	if err != nil {
		return err
	}
	*s = scale
	return nil
}

func (s *FontScale) Type() string {
	return "sm|md|lg"
}

type Settings struct {
	FontScale FontScale `json:"fontScale"`
}

// Default is used when nothing valid is stored.
func Default() Settings {
	return Settings{FontScale: FontScaleMedium}
}

// Service owns the settings singleton and persists it on every change.
type Service struct {
	mu       sync.Mutex
	kv       storage.Store
	logger   *slog.Logger
	settings Settings
}

func NewService(ctx context.Context, kv storage.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	loaded := storage.LoadJSON(ctx, kv, storage.SettingsKey, Default(), logger)
	if _, err := ParseFontScale(string(loaded.FontScale)); err != nil {
		logger.Warn("ignore stored settings", slog.Any("error", err))
		loaded = Default()
	}
	return &Service{
		kv:       kv,
		logger:   logger,
		settings: loaded,
	}
}

func (s *Service) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetFontScale rejects unknown scales; persistence failures are only logged.
func (s *Service) SetFontScale(ctx context.Context, scale FontScale) error {
	if _, err := ParseFontScale(string(scale)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.FontScale = scale
	storage.SaveJSON(ctx, s.kv, storage.SettingsKey, s.settings, s.logger)
	return nil
}
