package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/AndreyAkinshin/phpbuild/internal/engine"
	"github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/interpreter"
	"github.com/AndreyAkinshin/phpbuild/internal/testing/mocks"
)

func TestInterpreterFamilies(t *testing.T) {
	t.Parallel()
	tests := []struct {
		banner string
		want   interpreter.Version
		bridge string
	}{
		{"4.4.9", interpreter.Version4, "XMLWriter.php"},
		{"5.2.17", interpreter.Version5, filepath.Join("PHPUnit", "TextUI", "Surefire.php")},
	}

	for _, tt := range tests {
		t.Run(tt.banner, func(t *testing.T) {
			t.Parallel()
			runner := mocks.NewRunner().WithHandler(fakePHP(tt.banner))
			s, root := openSample(t, runner)
			ctx := context.Background()

			v, err := s.Version(ctx)
			if err != nil || v != tt.want {
				t.Fatalf("Version() = %v, %v, want %v", v, err, tt.want)
			}
			if _, err := s.Test(ctx, engine.TestOptions{}); err != nil {
				t.Fatalf("Test() error = %v", err)
			}
			if _, err := os.Stat(filepath.Join(root, "target", "php-test-deps", tt.bridge)); err != nil {
				t.Errorf("bridge script not installed: %v", err)
			}
		})
	}
}

func TestInterpreterUnresolved(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		result mocks.Result
	}{
		{"not installed", mocks.Result{StartErr: os.ErrNotExist}},
		{"no banner", mocks.Result{Stdout: "command not found\n"}},
		{"unsupported family", mocks.Banner("7.4.3")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			runner := mocks.NewRunner().WithResult(tt.result)
			s, root := openSample(t, runner)

			_, err := s.Validate(context.Background())
			if code := errors.GetExitCode(err); code != errors.ExitEnvironmentError {
				t.Errorf("GetExitCode() = %d, want %d (err: %v)", code, errors.ExitEnvironmentError, err)
			}
			if _, err := os.Stat(filepath.Join(root, "target", "classes")); !os.IsNotExist(err) {
				t.Errorf("no output expected before the version is known, stat error = %v", err)
			}
		})
	}
}
