// Package deps extracts archive dependencies into an include directory.
//
// Extraction is additive: an entry whose destination already exists is left
// alone, so unpacking the same archives again is a no-op and the first archive
// to provide a path wins. Two runs extracting into the same directory at the
// same time may race on that existence check.
package deps

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/logging"
)

// Stats counts what one Unpack call did.
type Stats struct {
	Archives  int // Archives opened
	Extracted int // Files written
	Skipped   int // Files left alone because the destination existed
	Dirs      int // Directory entries created
}

// Add accumulates counts from another Stats.
func (s *Stats) Add(other Stats) {
	s.Archives += other.Archives
	s.Extracted += other.Extracted
	s.Skipped += other.Skipped
	s.Dirs += other.Dirs
}

// Materializer unpacks zip-family (zip, jar, phar) and tar-family
// (tar, tar.gz, tgz) archives.
type Materializer struct {
	logger *zap.Logger
}

// New creates a Materializer.
func New(logger *zap.Logger) *Materializer {
	return &Materializer{logger: logging.OrNop(logger)}
}

// Unpack extracts every archive into targetDir, in the given order.
// targetDir is created even when there is nothing to extract. Paths that
// do not exist or are not regular files are skipped.
// Any filesystem failure aborts the whole call with a KindIO error.
func (m *Materializer) Unpack(targetDir string, archives []string) (Stats, error) {
	var total Stats
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return total, errors.IOf(err, "create dependency directory %s", targetDir)
	}

	for _, archive := range archives {
		info, err := os.Stat(archive)
		if err != nil || !info.Mode().IsRegular() {
			m.logger.Debug("skipping dependency, not a regular file", zap.String("archive", archive))
			continue
		}

		var stats Stats
		switch kindOf(archive) {
		case kindTar:
			stats, err = m.unpackTar(targetDir, archive, false)
		case kindTarGz:
			stats, err = m.unpackTar(targetDir, archive, true)
		default:
			stats, err = m.unpackZip(targetDir, archive)
		}
		total.Add(stats)
		if err != nil {
			return total, err
		}
		m.logger.Debug("dependency unpacked",
			zap.String("archive", archive),
			zap.Int("extracted", stats.Extracted),
			zap.Int("skipped", stats.Skipped))
	}
	return total, nil
}

type archiveKind int

const (
	kindZip archiveKind = iota
	kindTar
	kindTarGz
)

func kindOf(name string) archiveKind {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return kindTarGz
	case strings.HasSuffix(lower, ".tar"):
		return kindTar
	default:
		return kindZip
	}
}

func (m *Materializer) unpackZip(targetDir, archive string) (Stats, error) {
	stats := Stats{Archives: 1}
	r, err := zip.OpenReader(archive)
	if err != nil {
		return stats, errors.IOf(err, "open archive %s", archive)
	}
	defer r.Close()

	for _, f := range r.File {
		dest, err := destination(targetDir, f.Name)
		if err != nil {
			return stats, errors.IOf(err, "extract %s", archive)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return stats, errors.IOf(err, "create directory %s", dest)
			}
			stats.Dirs++
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}
		wrote, err := writeEntry(dest, f.Mode().Perm(), func() (io.ReadCloser, error) { return f.Open() })
		if err != nil {
			return stats, errors.IOf(err, "extract %s from %s", f.Name, archive)
		}
		if wrote {
			stats.Extracted++
		} else {
			stats.Skipped++
		}
	}
	return stats, nil
}

func (m *Materializer) unpackTar(targetDir, archive string, gzipped bool) (Stats, error) {
	stats := Stats{Archives: 1}
	file, err := os.Open(archive)
	if err != nil {
		return stats, errors.IOf(err, "open archive %s", archive)
	}
	defer file.Close()

	var src io.Reader = file
	if gzipped {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return stats, errors.IOf(err, "open archive %s", archive)
		}
		defer gz.Close()
		src = gz
	}

	tr := tar.NewReader(src)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, errors.IOf(err, "read archive %s", archive)
		}
		dest, err := destination(targetDir, hdr.Name)
		if err != nil {
			return stats, errors.IOf(err, "extract %s", archive)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0755); err != nil {
				return stats, errors.IOf(err, "create directory %s", dest)
			}
			stats.Dirs++
		case tar.TypeReg:
			wrote, err := writeEntry(dest, fs.FileMode(hdr.Mode).Perm(), func() (io.ReadCloser, error) {
				return io.NopCloser(tr), nil
			})
			if err != nil {
				return stats, errors.IOf(err, "extract %s from %s", hdr.Name, archive)
			}
			if wrote {
				stats.Extracted++
			} else {
				stats.Skipped++
			}
		default:
			m.logger.Debug("skipping non-regular archive entry",
				zap.String("archive", archive),
				zap.String("entry", hdr.Name))
		}
	}
}

// destination maps an archive entry name to a path under targetDir.
// Names that would escape targetDir are rejected.
func destination(targetDir, name string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "." || clean == "" {
		return targetDir, nil
	}
	rel := filepath.FromSlash(clean)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("illegal entry path %q", name)
	}
	return filepath.Join(targetDir, rel), nil
}

// writeEntry creates dest exclusively and copies the entry into it.
// It reports false without touching anything when dest already exists.
func writeEntry(dest string, perm fs.FileMode, open func() (io.ReadCloser, error)) (bool, error) {
	if perm == 0 {
		perm = 0644
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return false, err
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm|0200)
	if err != nil {
		if stderrors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}

	in, err := open()
	if err == nil {
		_, err = io.Copy(out, in)
		if cerr := in.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// A partial file would be skipped forever by later runs.
		os.Remove(dest)
		return false, err
	}
	return true, nil
}
