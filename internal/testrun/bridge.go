package testrun

import (
	_ "embed"
	"path/filepath"

	"github.com/AndreyAkinshin/phpbuild/internal/fsutil"
	"github.com/AndreyAkinshin/phpbuild/internal/interpreter"
)

// surefireBridge runs one test file and writes its XML report.
//
//go:embed bridge/Surefire.php
var surefireBridge []byte

// Bridge script locations relative to the test dependency directory.
const (
	BridgeV5 = "PHPUnit/TextUI/Surefire.php"
	BridgeV4 = "XMLWriter.php"
)

// BridgeScript returns the bridge script path for the given version.
func BridgeScript(testDeps string, v interpreter.Version) string {
	if v == interpreter.Version4 {
		return filepath.Join(testDeps, filepath.FromSlash(BridgeV4))
	}
	return filepath.Join(testDeps, filepath.FromSlash(BridgeV5))
}

// installBridge writes the bundled V5 bridge script unless one is already
// present. The V4 script ships with the test dependencies.
func installBridge(testDeps string, v interpreter.Version) (string, bool, error) {
	path := BridgeScript(testDeps, v)
	if v == interpreter.Version4 {
		return path, false, nil
	}
	wrote, err := fsutil.WriteIfAbsent(path, surefireBridge)
	return path, wrote, err
}
