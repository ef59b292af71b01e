package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ErrMarkersNotFound is returned when the sentinel comments are missing from the target file
var ErrMarkersNotFound = errors.New("MARKERS_NOT_FOUND")

// ReplaceBlock replaces everything between the first start marker and the following end marker
// markers are kept, the previous block is dropped wholesale
func ReplaceBlock(content, startMarker, endMarker, block string) (string, error) {
	start := strings.Index(content, startMarker)
	if start < 0 {
		return "", fmt.Errorf("%w: %q", ErrMarkersNotFound, startMarker)
	}

	afterStart := start + len(startMarker)

	end := strings.Index(content[afterStart:], endMarker)
	if end < 0 {
		return "", fmt.Errorf("%w: %q after %q", ErrMarkersNotFound, endMarker, startMarker)
	}

	end += afterStart

	var b strings.Builder
	b.WriteString(content[:afterStart])
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(block, "\n"))
	b.WriteString("\n")
	b.WriteString(content[end:])

	return b.String(), nil
}

// Block is the content injected between a pair of markers
type Block struct {
	Start   string
	End     string
	Content string
}

// UpdateReadme injects the blocks in a readme file, the file is only written when it changes
// every pair of markers must be present, otherwise nothing is written
func UpdateReadme(path string, blocks ...Block) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	updated := string(content)
	for _, block := range blocks {
		updated, err = ReplaceBlock(updated, block.Start, block.End, block.Content)
		if err != nil {
			return false, err
		}
	}

	if updated == string(content) {
		log.WithField("path", path).Info("readme already up to date")
		return false, nil
	}

	if err := WriteFile(path, []byte(updated)); err != nil {
		return false, err
	}

	log.WithFields(log.Fields{
		"path":   path,
		"blocks": len(blocks),
	}).Info("readme updated")

	return true, nil
}

// WriteFile replaces the file content through a temporary file in the same directory
// so a failed run never leaves a truncated artifact
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
