// Package fsutil holds the file copy helpers shared by validation and test runs.
package fsutil

import (
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/AndreyAkinshin/phpbuild/internal/errors"
)

// CopyToFolder copies file, which must be under srcRoot, to the same relative
// location under dstRoot. Unless force is set the copy is skipped when the
// destination exists and is not older than the source. The source
// modification time is kept on the copy.
//
// It reports whether the file was copied.
func CopyToFolder(srcRoot, dstRoot, file string, force bool) (bool, error) {
	rel, err := filepath.Rel(srcRoot, file)
	if err != nil || !filepath.IsLocal(rel) {
		return false, errors.IOf(err, "%s is not under %s", file, srcRoot)
	}
	dst := filepath.Join(dstRoot, rel)

	srcInfo, err := os.Stat(file)
	if err != nil {
		return false, errors.IOf(err, "stat %s", file)
	}
	if !force {
		if dstInfo, err := os.Stat(dst); err == nil && !dstInfo.ModTime().Before(srcInfo.ModTime()) {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return false, errors.IOf(err, "create directory for %s", dst)
	}
	if err := copyFile(file, dst, srcInfo.Mode().Perm()); err != nil {
		return false, errors.IOf(err, "copy %s to %s", file, dst)
	}
	if err := os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		return false, errors.IOf(err, "set modification time of %s", dst)
	}
	return true, nil
}

// WriteIfAbsent writes data to path unless something already exists there,
// creating parent directories as needed. It reports whether it wrote.
func WriteIfAbsent(path string, data []byte) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, errors.IOf(err, "create directory for %s", path)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if stderrors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, errors.IOf(err, "create %s", path)
	}
	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return false, errors.IOf(err, "write %s", path)
	}
	return true, nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	destination, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm|0200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(destination, source); err != nil {
		_ = destination.Close()
		return err
	}
	return destination.Close()
}
