package indexer

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphaelgruber/vaultsync/internal/vault"
)

// CleanupHidden removes backend embeddings for files that live under
// hidden directories. Files can migrate into an excluded directory
// (a template moved into .obsidian, for example) after they were
// indexed; this sweep runs at worker start to clear the leftovers.
func (c *Client) CleanupHidden(ctx context.Context, root string, logger *slog.Logger) {
	paths, err := hiddenIndexable(root)
	if err != nil {
		logger.Warn("hidden directory cleanup scan failed", "error", err)
		return
	}

	for _, p := range paths {
		cctx, cancel := context.WithTimeout(ctx, c.cleanupTimeout)
		err := c.Delete(cctx, p)
		cancel()
		if err != nil {
			logger.Warn("failed to remove hidden file from backend", "path", p, "error", err)
			continue
		}
		logger.Debug("removed hidden file from backend", "path", p)
	}
}

// hiddenIndexable walks the vault and returns vault-relative paths of
// indexable files that sit inside hidden directories.
func hiddenIndexable(root string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = vault.NormalizePath(rel)
		if !vault.IsHidden(rel) {
			return nil
		}
		if ext := strings.ToLower(filepath.Ext(rel)); ext == ".md" || ext == ".markdown" {
			paths = append(paths, rel)
		}
		return nil
	})
	return paths, err
}
