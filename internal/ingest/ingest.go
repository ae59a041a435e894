// Package ingest records collaborator documents in the store. Documents
// already ingested are recognized by content hash and skipped.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/logging"
	"rolodex/internal/store"
)

// Store is the part of store.Store ingestion writes through.
type Store interface {
	GetPerson(ctx context.Context, name string) (*store.Person, error)
	SourceHashes(ctx context.Context) (map[string]int64, error)
	UpsertPerson(ctx context.Context, name string, fields store.PersonFields) (*store.Person, error)
	CreateInteraction(ctx context.Context, in store.InteractionInput) (*store.Interaction, error)
}

type Result struct {
	Ingested     int     `json:"ingested"`
	Skipped      int     `json:"skipped"`
	Followups    int     `json:"followups"`
	Interactions []int64 `json:"interaction_ids"`
	Errors       []error `json:"-"`
}

type Options struct {
	// Full ingests every file even when its hash is already recorded.
	Full bool
	// DryRun parses and validates without writing.
	DryRun bool
}

var extensions = []string{".yaml", ".yml", ".json"}

// Run ingests every document under paths. Per-file failures are collected in
// Result.Errors; only failures to enumerate files or read hashes abort.
func Run(ctx context.Context, db Store, paths []string, options Options) (*Result, error) {
	files, err := walkDocuments(paths)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to walk documents")
	}

	existing := map[string]int64{}
	if !options.Full {
		if existing, err = db.SourceHashes(ctx); err != nil {
			return nil, goerr.Wrap(err, "failed to load source hashes")
		}
	}

	logger := logging.Default()
	result := &Result{Interactions: []int64{}}
	// Copies of a document ingested earlier in this run are skipped like
	// already ingested ones. A failed document is not recorded, so its copies
	// fail too.
	seen := make(map[string]struct{})

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			result.Errors = append(result.Errors, goerr.Wrap(err, "failed to read document", goerr.V("path", path)))
			continue
		}
		hash := computeHash(data)
		if _, ok := seen[hash]; ok {
			result.Skipped++
			continue
		}
		if id, ok := existing[hash]; ok {
			logger.Debug("document already ingested", "path", path, "interaction_id", id)
			result.Skipped++
			continue
		}

		interaction, followups, err := ingestFile(ctx, db, data, hash, options.DryRun)
		if err != nil {
			result.Errors = append(result.Errors, goerr.Wrap(err, "failed to ingest document", goerr.V("path", path)))
			continue
		}
		seen[hash] = struct{}{}
		result.Ingested++
		result.Followups += followups
		if interaction != nil {
			result.Interactions = append(result.Interactions, interaction.ID)
			logger.Info("ingested document",
				"path", path, "person", interaction.PersonName, "slug", interaction.Slug(), "interaction_id", interaction.ID)
		} else {
			logger.Info("document is valid", "path", path, "dry_run", true)
		}
	}
	return result, nil
}

func ingestFile(ctx context.Context, db Store, data []byte, hash string, dryRun bool) (*store.Interaction, int, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, 0, err
	}
	in, err := doc.Input(hash)
	if err != nil {
		return nil, 0, err
	}
	fields, err := doc.Fields()
	if err != nil {
		return nil, 0, err
	}

	if dryRun {
		if fields == nil {
			if _, err := db.GetPerson(ctx, in.PersonName); err != nil {
				return nil, 0, err
			}
		}
		return nil, len(doc.Followups), nil
	}

	person, err := db.GetPerson(ctx, in.PersonName)
	if err != nil && (fields == nil || !errors.Is(err, store.ErrNotFound)) {
		return nil, 0, err
	}
	if fields != nil {
		// A document without a background keeps the stored one.
		if fields.Background == "" && person != nil {
			fields.Background = person.Background
		}
		if person, err = db.UpsertPerson(ctx, in.PersonName, *fields); err != nil {
			return nil, 0, err
		}
	}

	// Followups and a first background land in the same write as the
	// interaction, so a recorded hash always means a complete document.
	interaction, err := db.CreateInteraction(ctx, in)
	if err != nil {
		return nil, 0, err
	}
	return interaction, len(in.Followups), nil
}

// walkDocuments expands directories into their document files, sorted.
// Files named explicitly are taken regardless of extension.
func walkDocuments(roots []string) ([]string, error) {
	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if slices.Contains(extensions, strings.ToLower(filepath.Ext(d.Name()))) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
