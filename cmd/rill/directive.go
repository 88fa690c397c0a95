package main

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const versionDirective = "# rill:"

// checkVersionDirective validates the compiler version against an
// optional constraint on the first line of a source file, written as
// `# rill: >=0.1.0`. Files without the directive always pass.
func checkVersionDirective(source string) error {
	line := source
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, versionDirective) {
		return nil
	}

	spec := strings.TrimSpace(strings.TrimPrefix(line, versionDirective))
	if spec == "" {
		return fmt.Errorf("empty version constraint in %q directive", versionDirective)
	}

	c, err := semver.NewConstraint(spec)
	if err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", spec, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid compiler version %q: %w", version, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("compiler version %s does not satisfy %q", version, spec)
	}
	return nil
}
