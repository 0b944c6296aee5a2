// Package discovery finds test-case files on disk and extracts their declared
// ordering metadata. The scheduler core never sees annotations: discovery
// hands it already-parsed dependency declarations and a ready-to-start
// command per test case.
package discovery

import (
	"bufio"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Annotations recognized in test-case sources, on comment lines:
//
//	# @gotr:requires <unit-id>
//	# @gotr:delay <minutes>
var (
	requiresRe = regexp.MustCompile(`@gotr:requires\s+(\S+)`)
	delayRe    = regexp.MustCompile(`@gotr:delay\s+(\S+)`)
)

// TestCase is one discovered test with its parsed declarations.
type TestCase struct {
	// ID is the fully-qualified test-case name: the file's path relative
	// to the discovery root, without extension.
	ID string

	// Path is the absolute file path.
	Path string

	// DependsOn is the declared dependency unit id, empty for none.
	DependsOn string

	// DelayMinutes is the declared post-dependency delay.
	DelayMinutes int

	// Command is the external command that runs this test.
	Command []string
}

// Config controls discovery.
type Config struct {
	Root        string // directory walked for test cases
	Pattern     string // base-name glob, default "*_test.sh"
	Interpreter string // command prefix, default "/bin/sh"
}

// DefaultConfig returns sensible defaults for root.
func DefaultConfig(root string) Config {
	return Config{
		Root:        root,
		Pattern:     "*_test.sh",
		Interpreter: "/bin/sh",
	}
}

// Discoverer scans a test root and produces TestCases.
type Discoverer struct {
	config Config
	logger *slog.Logger
}

// New creates a Discoverer with the given configuration.
func New(cfg Config, logger *slog.Logger) *Discoverer {
	if cfg.Pattern == "" {
		cfg.Pattern = "*_test.sh"
	}
	if cfg.Interpreter == "" {
		cfg.Interpreter = "/bin/sh"
	}
	return &Discoverer{config: cfg, logger: logger.With("component", "discovery")}
}

// Discover walks the root and returns all matching test cases in path order.
// Path order keeps registry insertion, and therefore scheduling, stable
// across runs.
func (d *Discoverer) Discover() ([]TestCase, error) {
	root, err := filepath.Abs(d.config.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", d.config.Root, err)
	}

	var cases []TestCase
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		matched, err := filepath.Match(d.config.Pattern, entry.Name())
		if err != nil {
			return fmt.Errorf("pattern %q: %w", d.config.Pattern, err)
		}
		if !matched {
			return nil
		}

		tc, err := d.parseFile(root, path)
		if err != nil {
			return err
		}
		d.logger.Debug("test case discovered",
			"unit_id", tc.ID, "depends_on", tc.DependsOn, "delay_minutes", tc.DelayMinutes)
		cases = append(cases, tc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	// WalkDir visits in lexical order already; cases are path-sorted.
	return cases, nil
}

// parseFile reads one test-case source and extracts its annotations.
func (d *Discoverer) parseFile(root, path string) (TestCase, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return TestCase{}, fmt.Errorf("relativize %s: %w", path, err)
	}

	// The interpreter may carry arguments ("/usr/bin/env bats").
	cmd := append(strings.Fields(d.config.Interpreter), path)
	tc := TestCase{
		ID:      unitID(rel),
		Path:    path,
		Command: cmd,
	}

	f, err := os.Open(path)
	if err != nil {
		return TestCase{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			continue
		}
		if m := requiresRe.FindStringSubmatch(line); m != nil {
			tc.DependsOn = m[1]
		}
		if m := delayRe.FindStringSubmatch(line); m != nil {
			minutes, err := strconv.Atoi(m[1])
			if err != nil || minutes < 0 {
				return TestCase{}, fmt.Errorf("%s: invalid @gotr:delay value %q", path, m[1])
			}
			tc.DelayMinutes = minutes
		}
	}
	if err := scanner.Err(); err != nil {
		return TestCase{}, fmt.Errorf("read %s: %w", path, err)
	}

	return tc, nil
}

// unitID derives the fully-qualified unit id from a root-relative path:
// slashes are kept, the extension is dropped.
func unitID(rel string) string {
	rel = filepath.ToSlash(rel)
	ext := filepath.Ext(rel)
	return strings.TrimSuffix(rel, ext)
}
