package service

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Scalingo/ghlangstats/model"
	log "github.com/sirupsen/logrus"
	"github.com/src-d/enry/v2"
)

// sniffLength is the amount of content read to detect binary files and ambiguous extensions
const sniffLength = 8000

type LocalService interface {
	ScanRepository(ctx context.Context, root string) (model.GithubRepository, error)
}

type localService struct{}

func NewLocalService() LocalService {
	return localService{}
}

// ScanRepository walks a local checkout and sums the bytes of each detected language
// vendored, dot, documentation and binary files are ignored the same way github linguist does
func (s localService) ScanRepository(ctx context.Context, root string) (model.GithubRepository, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return model.GithubRepository{}, err
	}

	languages := make(map[string]int)

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}

		if rel == "." {
			return nil
		}

		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if enry.IsDotFile(rel) || enry.IsVendor(rel+"/") {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.Type().IsRegular() || enry.IsDotFile(rel) || enry.IsVendor(rel) || enry.IsDocumentation(rel) || enry.IsConfiguration(rel) {
			return nil
		}

		lang, size, err := detectFileLanguage(path)
		if err != nil {
			return err
		}

		if lang == "" {
			return nil
		}

		languages[lang] += size
		return nil
	})

	if err != nil {
		return model.GithubRepository{}, fmt.Errorf("unable to scan %s: %w", root, err)
	}

	name := filepath.Base(absRoot)

	log.WithFields(log.Fields{
		"path":      absRoot,
		"languages": len(languages),
	}).Debug("local repository scanned")

	return model.GithubRepository{
		FullName:   "local/" + name,
		Owner:      "local",
		Repository: name,
		Languages:  languages,
	}, nil
}

func detectFileLanguage(path string) (string, int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", 0, err
	}

	sniff := content
	if len(sniff) > sniffLength {
		sniff = sniff[:sniffLength]
	}

	if len(content) == 0 || enry.IsBinary(sniff) || bytes.IndexByte(sniff, 0) >= 0 {
		return "", 0, nil
	}

	lang := enry.GetLanguage(filepath.Base(path), sniff)

	// only programming and markup languages are reported by github
	if lang == "" {
		return "", 0, nil
	}

	switch enry.GetLanguageType(lang) {
	case enry.Programming, enry.Markup:
		return lang, len(content), nil
	default:
		return "", 0, nil
	}
}
