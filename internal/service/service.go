// Package service exposes run queries to the HTTP API and CLI.
package service

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/verte-zerg/spirestats/internal/loader"
	"github.com/verte-zerg/spirestats/internal/model"
	"github.com/verte-zerg/spirestats/internal/runpath"
	"github.com/verte-zerg/spirestats/internal/stats"
)

var (
	// ErrUnknownCharacter is returned for a name that matches no character.
	ErrUnknownCharacter = errors.New("unknown character")
	// ErrNoRuns is returned when a character has no recorded runs.
	ErrNoRuns = errors.New("no runs for character")
)

// NotFoundError reports a failed character lookup.
type NotFoundError struct {
	Character string
	Valid     []string
	Err       error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("character not found: %s", e.Character)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Details lists the valid character identifiers.
func (e *NotFoundError) Details() string {
	return "Valid characters: " + strings.Join(e.Valid, ", ")
}

// Service answers run and stats queries. Every query rescans the runs
// directory; the only shared state is the resolver's custom path.
type Service struct {
	resolver *runpath.Resolver
	logger   *log.Logger
}

// New returns a Service reading runs through resolver. A nil logger discards diagnostics.
func New(resolver *runpath.Resolver, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{resolver: resolver, logger: logger}
}

// LoadRuns reads every run from the resolved directory.
// An unresolvable directory yields an empty result.
func (s *Service) LoadRuns() []model.RunMetrics {
	root, ok := s.resolver.Resolve()
	if !ok {
		s.logger.Printf("could not find runs directory")
		return []model.RunMetrics{}
	}
	return loader.Load(root, s.logger)
}

// ListRuns returns runs matching filter.
func (s *Service) ListRuns(filter model.RunFilter) []model.RunMetrics {
	return FilterRuns(s.LoadRuns(), filter)
}

// FilterRuns keeps runs matching filter.
func FilterRuns(runs []model.RunMetrics, filter model.RunFilter) []model.RunMetrics {
	out := []model.RunMetrics{}
	for _, r := range runs {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// CharacterRuns returns runs for one character, failing for unknown names.
func (s *Service) CharacterRuns(name string) ([]model.RunMetrics, error) {
	if _, ok := model.LookupCharacter(name); !ok {
		return nil, &NotFoundError{Character: name, Valid: model.CharacterIDs(), Err: ErrUnknownCharacter}
	}
	return s.ListRuns(model.RunFilter{Character: strings.TrimSpace(name)}), nil
}

// Stats aggregates all runs.
func (s *Service) Stats() []model.CharacterStats {
	return stats.Aggregate(s.LoadRuns())
}

// CharacterStats returns the aggregate row for one character. A valid
// character with no runs reports not found rather than a zero row.
func (s *Service) CharacterStats(name string) (model.CharacterStats, error) {
	return FindStats(s.Stats(), name)
}

// FindStats picks the row for name out of already aggregated rows.
func FindStats(rows []model.CharacterStats, name string) (model.CharacterStats, error) {
	name = strings.TrimSpace(name)
	for _, st := range rows {
		if strings.EqualFold(st.Character, name) {
			return st, nil
		}
	}
	nf := &NotFoundError{Character: name, Valid: model.CharacterIDs(), Err: ErrNoRuns}
	if _, ok := model.LookupCharacter(name); !ok {
		nf.Err = ErrUnknownCharacter
	}
	return model.CharacterStats{}, nf
}

// Export builds a snapshot of all runs and stats.
func (s *Service) Export() model.ExportData {
	return stats.BuildExport(s.LoadRuns())
}

// Characters lists the playable characters.
func (s *Service) Characters() []model.CharacterInfo {
	out := make([]model.CharacterInfo, 0, len(model.Characters()))
	for _, c := range model.Characters() {
		out = append(out, model.CharacterInfo{ID: c.DirName(), Name: c.DisplayName()})
	}
	return out
}

// PathInfo reports the runs path configuration.
func (s *Service) PathInfo() model.PathInfo {
	info := s.resolver.Describe()
	out := model.PathInfo{IsCustom: info.IsCustom}
	if info.Current != "" {
		current := info.Current
		out.CurrentPath = &current
		out.PathExists = runpath.Exists(current)
	}
	if info.AutoDetected != "" {
		auto := info.AutoDetected
		out.AutoDetectedPath = &auto
	}
	return out
}

// SetPath validates and sets the custom runs path.
func (s *Service) SetPath(path string) (model.PathInfo, error) {
	if err := s.resolver.Set(path); err != nil {
		return model.PathInfo{}, err
	}
	return s.PathInfo(), nil
}

// ClearPath reverts to auto-detection.
func (s *Service) ClearPath() model.PathInfo {
	s.resolver.Clear()
	return s.PathInfo()
}
