package fsutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func write(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestCopyToFolder(t *testing.T) {
	t.Parallel()
	older := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	tests := []struct {
		name     string
		srcTime  time.Time
		dstTime  time.Time // zero: destination absent
		force    bool
		wantCopy bool
	}{
		{"absent destination", newer, time.Time{}, false, true},
		{"source newer", newer, older, false, true},
		{"source older", older, newer, false, false},
		{"same time", older, older, false, false},
		{"forced over newer destination", older, newer, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			srcRoot := filepath.Join(dir, "src")
			dstRoot := filepath.Join(dir, "classes")
			src := filepath.Join(srcRoot, "pkg", "A.php")
			dst := filepath.Join(dstRoot, "pkg", "A.php")
			write(t, src, "source", tt.srcTime)
			if !tt.dstTime.IsZero() {
				write(t, dst, "existing", tt.dstTime)
			}

			copied, err := CopyToFolder(srcRoot, dstRoot, src, tt.force)
			if err != nil {
				t.Fatalf("CopyToFolder() error = %v", err)
			}
			if copied != tt.wantCopy {
				t.Errorf("copied = %v, want %v", copied, tt.wantCopy)
			}
			want := "existing"
			if tt.wantCopy {
				want = "source"
			}
			if got := read(t, dst); got != want {
				t.Errorf("destination = %q, want %q", got, want)
			}
			if tt.wantCopy {
				info, err := os.Stat(dst)
				if err != nil {
					t.Fatal(err)
				}
				if !info.ModTime().Equal(tt.srcTime) {
					t.Errorf("ModTime = %v, want %v", info.ModTime(), tt.srcTime)
				}
			}
		})
	}
}

func TestCopyToFolder_OutsideRoot(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	outside := filepath.Join(dir, "other", "B.php")
	write(t, outside, "x", time.Now())

	if _, err := CopyToFolder(filepath.Join(dir, "src"), filepath.Join(dir, "dst"), outside, false); err == nil {
		t.Error("CopyToFolder() should reject files outside the source root")
	}
}

func TestWriteIfAbsent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "PHPUnit", "TextUI", "Bridge.php")

	wrote, err := WriteIfAbsent(path, []byte("first"))
	if err != nil || !wrote {
		t.Fatalf("WriteIfAbsent() = %v, %v; want true, nil", wrote, err)
	}
	wrote, err = WriteIfAbsent(path, []byte("second"))
	if err != nil || wrote {
		t.Fatalf("second WriteIfAbsent() = %v, %v; want false, nil", wrote, err)
	}
	if got := read(t, path); got != "first" {
		t.Errorf("content = %q, want %q", got, "first")
	}
}
