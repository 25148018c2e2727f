// Package runpath locates the directory holding run save files.
package runpath

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const steamRunsSuffix = "steamapps/common/SlayTheSpire/runs"

var (
	// ErrPathNotFound is returned when a custom path does not exist.
	ErrPathNotFound = errors.New("path does not exist")
	// ErrNotDirectory is returned when a custom path is not a directory.
	ErrNotDirectory = errors.New("path is not a directory")
)

// PathError describes a rejected custom path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if errors.Is(e.Err, ErrNotDirectory) {
		return fmt.Sprintf("Path is not a directory: %s", e.Path)
	}
	return fmt.Sprintf("Path does not exist: %s", e.Path)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Info reports resolver state.
type Info struct {
	// Current is the custom path if it exists, otherwise the auto-detected one.
	Current      string
	IsCustom     bool
	AutoDetected string
}

// Resolver holds the custom runs path and the auto-detection candidates.
// It is safe for concurrent use.
type Resolver struct {
	mu     sync.RWMutex
	custom string

	candidates []string
	logger     *log.Logger
}

// DefaultCandidates returns the well-known Steam install locations, checked in order.
func DefaultCandidates() []string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return nil
	}
	return []string{
		filepath.Join(home, ".local", "share", "Steam", filepath.FromSlash(steamRunsSuffix)),
		filepath.Join(home, "AppData", "Local", "Steam", filepath.FromSlash(steamRunsSuffix)),
		"C:/Program Files (x86)/Steam/" + steamRunsSuffix,
	}
}

// New returns a Resolver probing candidates in order. A nil logger discards diagnostics.
func New(candidates []string, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Resolver{
		candidates: append([]string(nil), candidates...),
		logger:     logger,
	}
}

// Set validates path and makes it the custom runs path.
// On failure the previous configuration is kept.
func (r *Resolver) Set(path string) error {
	if err := Validate(path); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom = path
	return nil
}

// Restore sets the custom path without validation. Used for persisted
// configuration where a missing directory is reported at lookup time.
func (r *Resolver) Restore(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom = path
}

// Clear removes the custom path so lookups use auto-detection.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom = ""
}

// Custom returns the configured custom path, if any.
func (r *Resolver) Custom() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.custom, r.custom != ""
}

// Resolve returns the directory to read runs from.
func (r *Resolver) Resolve() (string, bool) {
	if custom, ok := r.Custom(); ok {
		if exists(custom) {
			return custom, true
		}
		r.logger.Printf("custom runs path does not exist: %s", custom)
	}
	return r.AutoDetect()
}

// AutoDetect returns the first existing candidate.
func (r *Resolver) AutoDetect() (string, bool) {
	for _, c := range r.candidates {
		if exists(c) {
			return c, true
		}
	}
	return "", false
}

// Describe reports the current configuration.
func (r *Resolver) Describe() Info {
	custom, isCustom := r.Custom()
	auto, _ := r.AutoDetect()
	info := Info{IsCustom: isCustom, AutoDetected: auto}
	if isCustom && exists(custom) {
		info.Current = custom
	} else {
		info.Current = auto
	}
	return info
}

// Validate checks that path exists and is a directory.
func Validate(path string) error {
	if path == "" {
		return &PathError{Path: path, Err: ErrPathNotFound}
	}
	fi, err := os.Stat(path)
	if err != nil {
		return &PathError{Path: path, Err: ErrPathNotFound}
	}
	if !fi.IsDir() {
		return &PathError{Path: path, Err: ErrNotDirectory}
	}
	return nil
}

// Exists reports whether path exists on disk.
func Exists(path string) bool {
	return exists(path)
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
