package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/studydesk/internal/calendar"
	"github.com/at-ishikawa/studydesk/internal/config"
	"github.com/at-ishikawa/studydesk/internal/module"
	"github.com/at-ishikawa/studydesk/internal/note"
	"github.com/at-ishikawa/studydesk/internal/settings"
	"github.com/at-ishikawa/studydesk/internal/storage"
	"github.com/at-ishikawa/studydesk/internal/timetable"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// desk is everything a command needs from the configured data.
type desk struct {
	cfg      *config.Config
	modules  *module.Registry
	notes    *note.Store
	events   *calendar.Store
	settings *settings.Service
	expander *timetable.Expander
	close    func() error
}

func openDesk(ctx context.Context) (*desk, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	modules, err := module.Load(cfg.Catalog.ModulesFile)
	if err != nil {
		return nil, fmt.Errorf("module.Load() > %w", err)
	}
	entries, err := timetable.Load(cfg.Catalog.TimetableFile, modules)
	if err != nil {
		return nil, fmt.Errorf("timetable.Load() > %w", err)
	}
	location, err := time.LoadLocation(cfg.Catalog.Timezone)
	if err != nil {
		return nil, fmt.Errorf("time.LoadLocation(%s) > %w", cfg.Catalog.Timezone, err)
	}

	kv, closeStore, err := storage.Open(ctx, *cfg)
	if err != nil {
		return nil, fmt.Errorf("storage.Open() > %w", err)
	}

	logger := slog.Default()
	return &desk{
		cfg:      cfg,
		modules:  modules,
		notes:    note.NewStore(ctx, kv, modules.Default().Slug, note.WithLogger(logger)),
		events:   calendar.NewStore(ctx, kv, calendar.WithLogger(logger)),
		settings: settings.NewService(ctx, kv, logger),
		expander: timetable.NewExpander(entries, location),
		close:    closeStore,
	}, nil
}

// withDesk opens the desk for the duration of fn.
func withDesk(ctx context.Context, fn func(d *desk) error) error {
	d, err := openDesk(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.close(); err != nil {
			slog.Default().Warn("failed to close the store", slog.Any("error", err))
		}
	}()
	return fn(d)
}

func (d *desk) requireModule(slug module.Slug) error {
	if !d.modules.Contains(slug) {
		return fmt.Errorf("unknown module %q, must be one of %s", slug, joinSlugs(d.modules.Slugs()))
	}
	return nil
}

// moduleLabel is the module name printed in the module's own color.
func (d *desk) moduleLabel(slug module.Slug) string {
	name := d.modules.Name(slug)
	r, g, b, ok := parseHexColor(d.modules.Color(slug))
	if !ok {
		return name
	}
	return color.RGB(r, g, b).Sprint(name)
}

func parseHexColor(hex string) (int, int, int, bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(value >> 16 & 0xff), int(value >> 8 & 0xff), int(value & 0xff), true
}

func joinSlugs(slugs []module.Slug) string {
	names := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		names = append(names, string(slug))
	}
	return strings.Join(names, ", ")
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q not found", kind, id)
}

// readContent returns text, or the content of file when file is set.
func readContent(text, file string) (string, error) {
	if file == "" {
		return text, nil
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("os.ReadFile(%s) > %w", file, err)
	}
	return string(content), nil
}

// openInput opens path for reading; "-" is stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s) > %w", path, err)
	}
	return f, nil
}

// writeOutput writes to path with write; "-" is the command output.
func writeOutput(stdout io.Writer, path string, write func(w io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("os.Create(%s) > %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// InstantFlag is a date-time flag accepting the same formats as event imports.
type InstantFlag struct {
	value time.Time
	set   bool
}

// Set implements pflag.Value.
func (f *InstantFlag) Set(v string) error {
	t, err := calendar.ParseInstant(v)
	if err != nil {
		return err
	}
	f.value = t
	f.set = true
	return nil
}

// String implements pflag.Value.
func (f *InstantFlag) String() string {
	if f == nil || !f.set {
		return ""
	}
	return f.value.Format(time.RFC3339)
}

// Type implements pflag.Value.
func (f *InstantFlag) Type() string {
	return "datetime"
}

// KindFlag selects the kind of a user-created event.
type KindFlag calendar.Kind

// Set implements pflag.Value.
func (k *KindFlag) Set(v string) error {
	switch calendar.Kind(v) {
	case calendar.KindExam, calendar.KindSpecial:
		*k = KindFlag(v)
	default:
		return fmt.Errorf("invalid value %q, valid values are %q or %q", v, calendar.KindExam, calendar.KindSpecial)
	}
	return nil
}

// String implements pflag.Value.
func (k *KindFlag) String() string {
	if k == nil {
		return ""
	}
	return string(*k)
}

// Type implements pflag.Value.
func (k *KindFlag) Type() string {
	return "KindFlag"
}

var (
	_ pflag.Value = (*InstantFlag)(nil)
	_ pflag.Value = (*KindFlag)(nil)
	_ pflag.Value = (*settings.FontScale)(nil)
)

// rangeOrWeek returns the range given by from and to, defaulting each side
// to the current week.
func rangeOrWeek(from, to InstantFlag, now time.Time) (time.Time, time.Time) {
	start, end := timetable.WeekRange(now)
	if from.set {
		start = from.value
	}
	if to.set {
		end = to.value
	}
	return start, end
}
