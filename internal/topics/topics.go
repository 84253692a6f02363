// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package topics manages the engine's on-disk data layout: one directory
// per conversation topic, holding raw transcript files alongside the
// generated DEBRIEF.md and RESEARCH.md artifacts. Transcripts already folded
// into the debrief carry a _read marker in their stem and are skipped on
// later scans.
package topics

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DebriefFile is the per-topic summary artifact.
	DebriefFile = "DEBRIEF.md"

	// ResearchFile is the per-topic research insights artifact.
	ResearchFile = "RESEARCH.md"

	// readSuffix marks a processed transcript: "1.txt" becomes "1_read.txt".
	readSuffix = "_read"

	debriefStub = "# Debrief\n"
)

// Topic is one conversation topic directory under the data dir.
type Topic struct {
	Name string
	Dir  string
}

// List returns the topic directories under dataDir in directory order.
// Dotted directories are ignored.
func List(dataDir string) ([]Topic, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("reading data directory %s: %w", dataDir, err)
	}

	var list []Topic
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		list = append(list, Topic{Name: entry.Name(), Dir: filepath.Join(dataDir, entry.Name())})
	}
	return list, nil
}

// ScanResult is the state of a topic directory.
type ScanResult struct {
	// Debrief is the current DEBRIEF.md content, or the stub heading when
	// the file was just created.
	Debrief string

	// Transcripts holds the unread transcript contents in directory order.
	Transcripts []string

	// UnreadPaths are the files behind Transcripts, in the same order, for
	// MarkRead after processing.
	UnreadPaths []string
}

// Scan reads a topic directory, returning the current debrief and any
// transcripts not yet folded into it. A missing DEBRIEF.md is created with
// the stub heading so the topic is recognizable on disk.
func Scan(dir string) (ScanResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ScanResult{}, fmt.Errorf("reading topic directory %s: %w", dir, err)
	}

	var result ScanResult
	for _, entry := range entries {
		if entry.IsDir() || !isTranscript(entry.Name()) || isRead(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return ScanResult{}, fmt.Errorf("reading transcript %s: %w", path, err)
		}
		result.Transcripts = append(result.Transcripts, string(content))
		result.UnreadPaths = append(result.UnreadPaths, path)
	}

	debriefPath := filepath.Join(dir, DebriefFile)
	content, err := os.ReadFile(debriefPath)
	switch {
	case err == nil:
		result.Debrief = string(content)
	case os.IsNotExist(err):
		if err := os.WriteFile(debriefPath, []byte(debriefStub), 0o644); err != nil {
			return ScanResult{}, fmt.Errorf("creating %s: %w", DebriefFile, err)
		}
		result.Debrief = debriefStub
	default:
		return ScanResult{}, fmt.Errorf("reading %s: %w", DebriefFile, err)
	}

	return result, nil
}

// isTranscript filters out the engine's own artifacts and hidden files.
func isTranscript(name string) bool {
	return name != DebriefFile && name != ResearchFile && !strings.HasPrefix(name, ".")
}

// isRead reports whether name carries the read marker. Only the stem is
// checked, so "notes_read.txt" matches but "spread.txt" does not.
func isRead(name string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.HasSuffix(stem, readSuffix)
}

// MarkRead renames transcripts with the read marker so later scans skip
// them. A failed rename is reported on w and does not stop the rest; the
// affected transcripts will be picked up again on the next scan.
func MarkRead(paths []string, w io.Writer) error {
	var failed int
	for _, path := range paths {
		ext := filepath.Ext(path)
		stem := strings.TrimSuffix(filepath.Base(path), ext)
		newPath := filepath.Join(filepath.Dir(path), stem+readSuffix+ext)

		if err := os.Rename(path, newPath); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", filepath.Base(path), err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be marked read", failed)
	}
	return nil
}

// WriteDebrief replaces the topic's DEBRIEF.md.
func WriteDebrief(dir, content string) error {
	if err := os.WriteFile(filepath.Join(dir, DebriefFile), []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", DebriefFile, err)
	}
	return nil
}

// ReadDebrief returns the topic's DEBRIEF.md content. Unlike ReadResearch,
// a missing debrief is an error: research needs a processed topic.
func ReadDebrief(dir string) (string, error) {
	content, err := os.ReadFile(filepath.Join(dir, DebriefFile))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", DebriefFile, err)
	}
	return string(content), nil
}

// ReadResearch returns the topic's RESEARCH.md content, or "" when the
// topic has no research artifact yet.
func ReadResearch(dir string) (string, error) {
	content, err := os.ReadFile(filepath.Join(dir, ResearchFile))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", ResearchFile, err)
	}
	return string(content), nil
}

// WriteResearch replaces the topic's RESEARCH.md.
func WriteResearch(dir, content string) error {
	if err := os.WriteFile(filepath.Join(dir, ResearchFile), []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ResearchFile, err)
	}
	return nil
}

// LoadDebriefs returns the debrief of every topic that has one, keyed by
// topic name. Topics without a debrief, or with only the stub heading, are
// left out; they have nothing to contribute to cross-topic analysis.
func LoadDebriefs(dataDir string) (map[string]string, error) {
	list, err := List(dataDir)
	if err != nil {
		return nil, err
	}

	debriefs := make(map[string]string)
	for _, topic := range list {
		content, err := os.ReadFile(filepath.Join(topic.Dir, DebriefFile))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading debrief for %s: %w", topic.Name, err)
		}
		if trimmed := strings.TrimSpace(string(content)); trimmed == "" || trimmed == "# Debrief" {
			continue
		}
		debriefs[topic.Name] = string(content)
	}
	return debriefs, nil
}

// ReadAllTranscripts returns every transcript in the topic directory, read
// or unread. Quality evaluation needs the full source material.
func ReadAllTranscripts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading topic directory %s: %w", dir, err)
	}

	var transcripts []string
	for _, entry := range entries {
		if entry.IsDir() || !isTranscript(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading transcript %s: %w", path, err)
		}
		transcripts = append(transcripts, string(content))
	}
	return transcripts, nil
}
