package sources

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/HoaxWatch/internal/config"
	"github.com/IshaanNene/HoaxWatch/internal/fetcher"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// Deps are the shared collaborators handed to every source constructor.
type Deps struct {
	Client        fetcher.Fetcher
	DetailTimeout time.Duration
	Logger        *slog.Logger
}

// constructor builds a source from its configuration.
type constructor func(cfg config.SourceConfig, deps Deps) (Source, error)

type known struct {
	name  string
	build constructor
}

var builtins = map[string]known{
	config.SourceTurnBackHoax: {"TurnBackHoax", func(c config.SourceConfig, d Deps) (Source, error) { return NewTurnBackHoax(c, d) }},
	config.SourceAntaranews:   {"Antara Anti-Hoax", func(c config.SourceConfig, d Deps) (Source, error) { return NewAntaranews(c, d) }},
	config.SourceKompas:       {"Kompas Cek Fakta", func(c config.SourceConfig, d Deps) (Source, error) { return NewKompas(c, d) }},
	config.SourceDetik:        {"Detik Hoax or Not", func(c config.SourceConfig, d Deps) (Source, error) { return NewDetik(c, d) }},
	config.SourceTempo:        {"Tempo Hoax", func(c config.SourceConfig, d Deps) (Source, error) { return NewTempo(c, d) }},
}

// Entry is one registry slot. Source is nil when the source could not be
// loaded; Err then says why.
type Entry struct {
	Key      string
	Name     string
	Interval time.Duration
	Source   Source
	Err      error
}

// Available reports whether the entry has a usable source.
func (e Entry) Available() bool { return e.Source != nil }

// Registry is the ordered set of sources a manager schedules.
type Registry struct {
	entries []Entry
	index   map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// NewDefaultRegistry builds every known source from configuration. Sources
// that are disabled or fail to construct stay registered as unavailable.
func NewDefaultRegistry(cfg *config.Config, client fetcher.Fetcher, logger *slog.Logger) *Registry {
	deps := Deps{
		Client:        client,
		DetailTimeout: cfg.Fetcher.DetailTimeout,
		Logger:        logger,
	}

	r := NewRegistry()
	for _, key := range config.SourceKeys {
		k := builtins[key]
		srcCfg, ok := cfg.Sources[key]
		if !ok || !srcCfg.Enabled {
			r.AddUnavailable(key, k.name, fmt.Errorf("%w: disabled in configuration", types.ErrDependencyUnavailable))
			continue
		}
		src, err := k.build(srcCfg, deps)
		if err != nil {
			logger.Warn("source unavailable", "source", key, "error", err)
			r.AddUnavailable(key, k.name, fmt.Errorf("%w: %w", types.ErrDependencyUnavailable, err))
			continue
		}
		r.Add(src, srcCfg.Interval)
	}
	return r
}

// Add registers src under its key, replacing any previous entry.
func (r *Registry) Add(src Source, interval time.Duration) {
	r.put(Entry{Key: src.Key(), Name: src.Name(), Interval: interval, Source: src})
}

// AddUnavailable registers a key whose source could not be loaded.
func (r *Registry) AddUnavailable(key, name string, err error) {
	r.put(Entry{Key: key, Name: name, Err: err})
}

func (r *Registry) put(e Entry) {
	if i, ok := r.index[e.Key]; ok {
		r.entries[i] = e
		return
	}
	r.index[e.Key] = len(r.entries)
	r.entries = append(r.entries, e)
}

// Get returns the entry for key.
func (r *Registry) Get(key string) (Entry, bool) {
	i, ok := r.index[key]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Entries returns all entries in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.entries))
	for i, e := range r.entries {
		keys[i] = e.Key
	}
	return keys
}
