// Package loader scans a runs directory and parses every run file.
package loader

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/verte-zerg/spirestats/internal/model"
	"github.com/verte-zerg/spirestats/internal/parser"
)

// Load parses every run file under root/<CHARACTER_DIR>. Unreadable or
// malformed files are logged and skipped. A nil logger discards diagnostics.
func Load(root string, logger *log.Logger) []model.RunMetrics {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	runs := []model.RunMetrics{}
	for _, c := range model.Characters() {
		runs = append(runs, loadCharacter(root, c, logger)...)
	}
	return runs
}

func loadCharacter(root string, c model.Character, logger *log.Logger) []model.RunMetrics {
	dir := filepath.Join(root, c.DirName())
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Printf("failed to read %s: %v", dir, err)
		}
		return nil
	}
	var runs []model.RunMetrics
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != parser.RunExt {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		m, err := parser.ParseFile(path, c.DirName())
		if err != nil {
			logger.Printf("skipping %s: %v", path, err)
			continue
		}
		runs = append(runs, m)
	}
	return runs
}
