package interpreter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/AndreyAkinshin/phpbuild/internal/errors"
	"github.com/AndreyAkinshin/phpbuild/internal/logging"
)

// VersionFlag makes the interpreter print its version banner.
const VersionFlag = "-v"

// Version is the interpreter major version family.
type Version int

const (
	VersionUnknown Version = iota
	Version4
	Version5
)

func (v Version) String() string {
	switch v {
	case Version4:
		return "PHP4"
	case Version5:
		return "PHP5"
	default:
		return "unknown"
	}
}

// ParseBanner extracts the version family from a banner line such as
// "PHP 5.3.2 (cli) (built: ...)". The major digit sits at offset 4.
// Major version 6 is reported as Version5.
func ParseBanner(line string) (Version, error) {
	if !strings.HasPrefix(line, "PHP") || len(line) < 5 {
		return VersionUnknown, fmt.Errorf("malformed version banner %q", line)
	}
	switch line[4] {
	case '5', '6':
		return Version5, nil
	case '4':
		return Version4, nil
	default:
		return VersionUnknown, fmt.Errorf("unsupported interpreter version %q in banner %q", line[4:5], line)
	}
}

// VersionDetector resolves the interpreter version once and caches it.
// Failed resolutions are not cached.
type VersionDetector struct {
	executor *Executor
	logger   *zap.Logger

	mu      sync.Mutex
	version Version
}

// NewVersionDetector creates a detector that probes through executor.
func NewVersionDetector(executor *Executor, logger *zap.Logger) *VersionDetector {
	return &VersionDetector{
		executor: executor,
		logger:   logging.OrNop(logger),
	}
}

// Resolve returns the interpreter version, invoking the interpreter on the
// first successful call only.
func (d *VersionDetector) Resolve(ctx context.Context) (Version, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.version != VersionUnknown {
		return d.version, nil
	}

	var banner string
	_, err := d.executor.Run(ctx, VersionFlag, "", func(line string) {
		if banner == "" && strings.HasPrefix(line, "PHP") {
			banner = line
		}
	})
	if err != nil {
		return VersionUnknown, errors.VersionUnresolved("cannot resolve interpreter version", err)
	}
	if banner == "" {
		return VersionUnknown, errors.VersionUnresolved("cannot resolve interpreter version: no version banner in output", nil)
	}

	version, err := ParseBanner(banner)
	if err != nil {
		d.logger.Error("unsupported interpreter version", zap.String("banner", banner))
		return VersionUnknown, errors.VersionUnresolved("cannot resolve interpreter version", err)
	}

	switch {
	case version == Version4:
		d.logger.Warn("PHP4 support is deprecated", zap.String("banner", banner))
	case banner[4] == '6':
		d.logger.Warn("PHP6 detected, treating it as PHP5 compatible", zap.String("banner", banner))
	}
	d.logger.Debug("interpreter version resolved", zap.Stringer("version", version))

	d.version = version
	return version, nil
}
