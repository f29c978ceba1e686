package project

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// layoutCandidates defines the auto-detection order for layout directories.
// First existing directory wins.
var (
	sourceCandidates = []string{"src/main/php", "src", "lib"}
	testCandidates   = []string{"src/test/php", "tests", "test"}
)

// archiveDirs are scanned for dependency archives by DiscoverArchives.
var archiveDirs = []string{"lib", "libs", "deps"}

// Layout is a detected project layout. Empty fields were not detected.
type Layout struct {
	Source string
	Tests  string
}

// DetectLayout guesses the source and test directories of a project.
func DetectLayout(root string) Layout {
	var l Layout
	l.Source = firstDir(root, sourceCandidates, "")
	l.Tests = firstDir(root, testCandidates, l.Source)
	return l
}

// DiscoverArchives finds dependency archives in conventional directories,
// sorted by path. Paths are relative to root with forward slashes.
func DiscoverArchives(root string) ([]string, error) {
	var archives []string
	for _, dir := range archiveDirs {
		entries, err := os.ReadDir(filepath.Join(root, dir))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !isArchive(entry.Name()) {
				continue
			}
			archives = append(archives, dir+"/"+entry.Name())
		}
	}
	sort.Strings(archives)
	return archives, nil
}

func isArchive(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".zip", ".tar", ".tar.gz", ".tgz"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func firstDir(root string, candidates []string, skip string) string {
	for _, c := range candidates {
		if c == skip {
			continue
		}
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(c)))
		if err == nil && info.IsDir() {
			return c
		}
	}
	return ""
}
