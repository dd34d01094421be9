// Package importer reconciles configured content sources with the
// database: new flashcards found in markdown files get a New-state card,
// flashcards whose content disappeared from the files are removed.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grammr/srs/internal/domain"
	"github.com/grammr/srs/internal/gitsource"
	"github.com/grammr/srs/internal/knol"
	"github.com/grammr/srs/internal/parser"
	"github.com/grammr/srs/internal/storage"
)

// Importer syncs card sources into the store.
type Importer struct {
	db       *storage.DB
	reposDir string
	logger   *slog.Logger
}

// New creates an Importer. reposDir is where git sources are cloned.
func New(db *storage.DB, reposDir string, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{db: db, reposDir: reposDir, logger: logger}
}

// DetectType classifies a source path as "git" or "local".
func DetectType(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return "git"
	}
	return "local"
}

// Run reconciles all of the user's sources. Individual source failures are
// logged and skipped so one broken repository does not block the rest.
func (i *Importer) Run(ctx context.Context, userID string) error {
	sources, err := i.db.Sources(ctx, userID)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}
	if len(sources) == 0 {
		i.logger.Info("no sources configured", "user", userID)
		return nil
	}

	if err := os.MkdirAll(i.reposDir, 0o755); err != nil {
		return fmt.Errorf("create repos directory %s: %w", i.reposDir, err)
	}

	for _, source := range sources {
		i.logger.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		dir := source.Path
		if source.Type == "git" {
			localPath, err := localPathForRepo(i.reposDir, source.Path)
			if err != nil {
				i.logger.Error("cannot derive local path for git source", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(ctx, i.logger, source.Path, localPath); err != nil {
				i.logger.Error("git sync failed", "url", source.Path, "error", err)
				continue
			}
			dir = localPath
		}

		if err := i.reconcile(ctx, source, dir); err != nil {
			i.logger.Error("reconcile failed", "source", source.Path, "error", err)
		}
	}
	return nil
}

// reconcile diffs a source directory's markdown content against the
// database rows imported from that source.
func (i *Importer) reconcile(ctx context.Context, source domain.Source, dir string) error {
	found := make(map[string]struct{})
	var inserted, parseErrors int

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		cards, err := parser.ParseFile(path)
		if err != nil {
			parseErrors++
			i.logger.Warn("parse failed", "file", path, "error", err)
			return nil
		}

		for _, fc := range cards {
			fc.UserID = source.UserID
			fc.SourceID = source.ID
			fc.Hash = knol.Hash(fc)
			found[fc.Hash] = struct{}{}

			existing, err := i.db.FindFlashcardByHash(ctx, source.UserID, fc.Hash)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if _, err := i.db.CreateFlashcardWithCard(ctx, &fc, time.Now()); err != nil {
				return fmt.Errorf("insert flashcard %s: %w", fc.Hash, err)
			}
			inserted++
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walk %s: %w", dir, walkErr)
	}

	existing, err := i.db.FlashcardsBySource(ctx, source.ID)
	if err != nil {
		return err
	}

	var orphaned int
	for _, fc := range existing {
		if _, ok := found[fc.Hash]; ok {
			continue
		}
		if err := i.db.DeleteFlashcardByHash(ctx, fc.UserID, fc.Hash); err != nil {
			i.logger.Warn("delete orphaned flashcard failed", "hash", fc.Hash, "error", err)
			continue
		}
		orphaned++
	}

	if err := i.db.TouchSource(ctx, source.ID, time.Now()); err != nil {
		i.logger.Warn("update source scan time failed", "source", source.ID, "error", err)
	}

	i.logger.Info("reconciliation complete",
		"path", dir,
		"found", len(found),
		"inserted", inserted,
		"orphaned_deleted", orphaned,
		"parse_errors", parseErrors,
	)
	return nil
}

// localPathForRepo maps a git URL to a stable directory under baseDir, so
// the same repository always syncs into the same clone.
func localPathForRepo(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		return filepath.Join(baseDir, parsed.Host, strings.TrimSuffix(parsed.Path, ".git")), nil
	}

	// scp-like syntax: git@host:owner/repo.git
	if at := strings.Index(repoURL, "@"); at >= 0 {
		if host, repoPath, ok := strings.Cut(repoURL[at+1:], ":"); ok {
			return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
