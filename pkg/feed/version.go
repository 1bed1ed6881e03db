package feed

import (
	"bufio"
	"strings"

	extVersion "github.com/hashicorp/go-version"
	"github.com/pkg/errors"
)

const headerPrefix = "#orderfeed"

// SupportedVersions is the range of feed format versions this reader accepts
const SupportedVersions = ">= 1.0, < 2.0"

// DefaultVersion is assumed when a feed has no header
const DefaultVersion = "1.0"

var supported = mustConstraint(SupportedVersions)

func mustConstraint(c string) extVersion.Constraints {
	constraints, err := extVersion.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraints
}

// CheckVersion verifies that a declared feed version can be read
func CheckVersion(v string) error {
	parsed, err := extVersion.NewVersion(v)
	if err != nil {
		return errors.Wrapf(err, "Error in parsing feed version %s", v)
	}
	if !supported.Check(parsed) {
		return errors.Errorf("feed version %s is not supported, need %s", v, SupportedVersions)
	}
	return nil
}

// readHeader consumes an optional "#orderfeed <version>" first line.
// It returns the version and whether a line was consumed.
func readHeader(r *bufio.Reader) (string, bool, error) {
	peek, _ := r.Peek(len(headerPrefix))
	if string(peek) != headerPrefix {
		return DefaultVersion, false, nil
	}
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", false, errors.Wrap(err, "Failed to read feed header")
	}
	fields := strings.Fields(strings.TrimPrefix(line, headerPrefix))
	if len(fields) != 1 {
		return "", true, errors.Errorf("malformed feed header %q", strings.TrimSpace(line))
	}
	if err := CheckVersion(fields[0]); err != nil {
		return "", true, err
	}
	return fields[0], true, nil
}
