// Package templates keeps the template_pads table in sync with the
// JSON template files shipped alongside the frontend bundle.
package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"padws/internal/store"
	"padws/pkg/logging"
)

// templateFile mirrors the fragment of a template JSON document that
// carries its display name.
type templateFile struct {
	AppState struct {
		Pad struct {
			DisplayName string `json:"displayName"`
		} `json:"pad"`
	} `json:"appState"`
}

// Loader syncs *.json files from a directory into the template store.
// The file name (without extension) is the template name; the display
// name comes from appState.pad.displayName.
type Loader struct {
	dir       string
	templates *store.TemplatePads
}

// NewLoader creates a loader for the given directory.
func NewLoader(dir string, templates *store.TemplatePads) *Loader {
	return &Loader{dir: dir, templates: templates}
}

// SyncAll loads every template file in the directory. Individual file
// failures are logged and skipped so one bad template doesn't block
// startup.
func (l *Loader) SyncAll(ctx context.Context) error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Warn("Templates", "Template directory %s does not exist, skipping sync", l.dir)
			return nil
		}
		return fmt.Errorf("reading template directory %s: %w", l.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := l.SyncFile(ctx, filepath.Join(l.dir, entry.Name())); err != nil {
			logging.Error("Templates", err, "Failed to sync template %s", entry.Name())
		}
	}
	return nil
}

// SyncFile upserts a single template file into the store.
func (l *Loader) SyncFile(ctx context.Context, path string) error {
	name := strings.TrimSuffix(filepath.Base(path), ".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading template %s: %w", path, err)
	}

	var tf templateFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("parsing template %s: %w", path, err)
	}
	displayName := tf.AppState.Pad.DisplayName
	if displayName == "" {
		displayName = "Untitled"
	}

	if _, err := l.templates.Upsert(ctx, name, displayName, data); err != nil {
		return err
	}
	logging.Info("Templates", "Synced template %s (%s)", name, displayName)
	return nil
}
