package walk

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AndreyAkinshin/phpbuild/internal/errors"
)

// makeTree creates the given slash-separated files under a temp dir.
func makeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(f), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

type recorder struct {
	root      string
	files     []string
	processed []string
	failOn    map[string]bool
}

func (r *recorder) rel(path string) string {
	rel, _ := filepath.Rel(r.root, path)
	return filepath.ToSlash(rel)
}

func (r *recorder) onFile(path string) error {
	rel := r.rel(path)
	r.files = append(r.files, rel)
	if r.failOn[rel] {
		return fmt.Errorf("boom in %s", rel)
	}
	return nil
}

func (r *recorder) onProcessed(path string) error {
	r.processed = append(r.processed, r.rel(path))
	return nil
}

func TestWalk_FaultIsolation(t *testing.T) {
	t.Parallel()
	root := makeTree(t, "a.php", "b.php", "c.php")
	rec := &recorder{root: root, failOn: map[string]bool{"b.php": true}}

	err := (&Walker{}).Walk(root, nil, nil, rec.onFile, rec.onProcessed)

	var agg *AggregateError
	if !stderrors.As(err, &agg) {
		t.Fatalf("Walk() error = %v, want *AggregateError", err)
	}
	if len(agg.Exceptions) != 1 {
		t.Fatalf("exceptions = %d, want 1", len(agg.Exceptions))
	}
	if agg.Exceptions[0].Path != filepath.Join(root, "b.php") {
		t.Errorf("failed path = %q", agg.Exceptions[0].Path)
	}
	if got := strings.Join(rec.files, ","); got != "a.php,b.php,c.php" {
		t.Errorf("onFile visits = %s", got)
	}
	if got := strings.Join(rec.processed, ","); got != "a.php,c.php" {
		t.Errorf("onProcessed visits = %s", got)
	}
	if agg.Kind() != errors.KindAggregate {
		t.Errorf("Kind() = %v", agg.Kind())
	}
}

func TestWalk_AllFilesVisitedBeforeFailure(t *testing.T) {
	t.Parallel()
	var files []string
	for i := 0; i < 20; i++ {
		files = append(files, fmt.Sprintf("pkg%d/f%02d.php", i%3, i))
	}
	root := makeTree(t, files...)
	failOn := map[string]bool{}
	for i := 0; i < 20; i += 4 {
		failOn[fmt.Sprintf("pkg%d/f%02d.php", i%3, i)] = true
	}
	rec := &recorder{root: root, failOn: failOn}

	err := (&Walker{}).Walk(root, nil, nil, rec.onFile, rec.onProcessed)

	var agg *AggregateError
	if !stderrors.As(err, &agg) {
		t.Fatalf("Walk() error = %v, want *AggregateError", err)
	}
	if len(rec.files) != 20 {
		t.Errorf("onFile visits = %d, want 20", len(rec.files))
	}
	if len(agg.Exceptions) != len(failOn) {
		t.Errorf("exceptions = %d, want %d", len(agg.Exceptions), len(failOn))
	}
	if len(rec.processed) != 20-len(failOn) {
		t.Errorf("onProcessed visits = %d, want %d", len(rec.processed), 20-len(failOn))
	}
}

func TestWalk_AggregateMessageInVisitationOrder(t *testing.T) {
	t.Parallel()
	root := makeTree(t, "a.php", "b.php", "c.php")
	rec := &recorder{root: root, failOn: map[string]bool{"a.php": true, "c.php": true}}

	err := (&Walker{}).Walk(root, nil, nil, rec.onFile, nil)
	if err == nil {
		t.Fatal("Walk() error = nil")
	}
	if got, want := err.Error(), "boom in a.php\nboom in c.php"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWalk_SuffixAndProcessed(t *testing.T) {
	t.Parallel()
	root := makeTree(t, "a.php", "data.xml", "sub/b.inc", "sub/c.php")
	rec := &recorder{root: root}

	if err := (&Walker{}).Walk(root, nil, nil, rec.onFile, rec.onProcessed); err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if got := strings.Join(rec.files, ","); got != "a.php,sub/c.php" {
		t.Errorf("onFile visits = %s", got)
	}
	if got := strings.Join(rec.processed, ","); got != "a.php,data.xml,sub/b.inc,sub/c.php" {
		t.Errorf("onProcessed visits = %s", got)
	}

	rec = &recorder{root: root}
	if err := (&Walker{Suffix: ".inc"}).Walk(root, nil, nil, rec.onFile, nil); err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if got := strings.Join(rec.files, ","); got != "sub/b.inc" {
		t.Errorf("onFile visits with .inc suffix = %s", got)
	}
}

func TestWalk_Patterns(t *testing.T) {
	t.Parallel()
	tree := []string{
		"a.php",
		".git/hooks/pre-commit.php",
		".svn/entries",
		"lib/x.php",
		"lib/generated/y.php",
		"tests/z.php",
	}
	tests := []struct {
		name     string
		includes []string
		excludes []string
		want     string
	}{
		{"defaults only", nil, nil, "a.php,lib/generated/y.php,lib/x.php,tests/z.php"},
		{"includes narrow", []string{"lib/**"}, nil, "lib/generated/y.php,lib/x.php"},
		{"excludes widen", nil, []string{"lib/generated/"}, "a.php,lib/x.php,tests/z.php"},
		{"both", []string{"**/*.php"}, []string{"tests/**", "a.php"}, "lib/generated/y.php,lib/x.php"},
		{"backslash pattern", nil, []string{`lib\generated\`}, "a.php,lib/x.php,tests/z.php"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := makeTree(t, tree...)
			rec := &recorder{root: root}
			if err := (&Walker{}).Walk(root, tt.includes, tt.excludes, nil, rec.onProcessed); err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			if got := strings.Join(rec.processed, ","); got != tt.want {
				t.Errorf("visited = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWalk_InvalidPattern(t *testing.T) {
	t.Parallel()
	root := makeTree(t, "a.php")
	err := (&Walker{}).Walk(root, []string{"[unclosed"}, nil, nil, nil)
	if !errors.IsKind(err, errors.KindConfig) {
		t.Errorf("Walk() error = %v, want config error", err)
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	t.Parallel()
	called := false
	cb := func(string) error { called = true; return nil }

	missing := filepath.Join(t.TempDir(), "does-not-exist")
	if err := (&Walker{}).Walk(missing, nil, nil, cb, cb); err != nil {
		t.Errorf("Walk(missing) error = %v, want nil", err)
	}

	file := filepath.Join(makeTree(t, "plain.php"), "plain.php")
	if err := (&Walker{}).Walk(file, nil, nil, cb, cb); err != nil {
		t.Errorf("Walk(file) error = %v, want nil", err)
	}
	if called {
		t.Error("callbacks must not run when root is not a directory")
	}
}

func TestAggregateError_ExitCodeAndUnwrap(t *testing.T) {
	t.Parallel()
	cfg := errors.Config("bad")
	agg := &AggregateError{Exceptions: []*Exception{
		{Path: "a", Err: stderrors.New("plain")},
		{Path: "b", Err: cfg},
	}}
	if got := agg.ExitCode(); got != errors.ExitConfigError {
		t.Errorf("ExitCode() = %d, want %d", got, errors.ExitConfigError)
	}
	if got := errors.GetExitCode(agg); got != errors.ExitConfigError {
		t.Errorf("GetExitCode() = %d, want %d", got, errors.ExitConfigError)
	}
	if !stderrors.Is(agg, cfg) {
		t.Error("errors.Is should find a wrapped per-file error")
	}
	if got := strings.Join(agg.Files(), ","); got != "a,b" {
		t.Errorf("Files() = %s", got)
	}
}
