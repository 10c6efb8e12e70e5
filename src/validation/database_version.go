// Package validation inspects the target database before and between collection phases
package validation

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/blang/semver/v4"
	"github.com/newrelic/infra-integrations-sdk/v3/log"

	"github.com/taqo-project/taqo/src/connection"
)

const (
	getDatabaseVersionQuery = "SELECT VERSION()"

	ProductYugabyte = "yugabyte"
	ProductPostgres = "postgres"
)

var (
	ErrEmptyVersion      = errors.New("database version is empty")
	ErrUnparsableVersion = errors.New("could not parse version from database version string")
	yugabyteVersionRegex = regexp.MustCompile(`-YB-(\d+\.\d+\.\d+)(?:\.(\d+))?(?:-b(\d+))?`)
	postgresVersionRegex = regexp.MustCompile(`PostgreSQL (\d+(?:\.\d+){0,2})`)
)

// DatabaseVersion is the parsed result of SELECT VERSION().
type DatabaseVersion struct {
	Raw     string
	Product string
	Version semver.Version
}

func (v DatabaseVersion) String() string {
	if v.Product == "" {
		return v.Raw
	}
	return fmt.Sprintf("%s %s", v.Product, v.Version)
}

// DetectVersion queries and parses the server version of the session.
func DetectVersion(ctx context.Context, session connection.Session) (DatabaseVersion, error) {
	lines, err := session.FetchColumn(ctx, getDatabaseVersionQuery)
	if err != nil {
		return DatabaseVersion{}, fmt.Errorf("error getting database version: %w", err)
	}
	if len(lines) == 0 {
		return DatabaseVersion{}, ErrEmptyVersion
	}

	version, err := ParseVersion(lines[0])
	if err != nil {
		return DatabaseVersion{Raw: lines[0]}, err
	}
	log.Debug("Parsed database version: %s", version)
	return version, nil
}

// ParseVersion extracts the product version from a VERSION() string. YugabyteDB strings carry
// both the Postgres compatibility version and the YB release; the YB release wins.
func ParseVersion(raw string) (DatabaseVersion, error) {
	if raw == "" {
		return DatabaseVersion{}, ErrEmptyVersion
	}

	if m := yugabyteVersionRegex.FindStringSubmatch(raw); m != nil {
		version, err := semver.ParseTolerant(m[1])
		if err != nil {
			return DatabaseVersion{Raw: raw}, fmt.Errorf("%w: %w", ErrUnparsableVersion, err)
		}
		if m[2] != "" {
			version.Build = append(version.Build, m[2])
		}
		if m[3] != "" {
			version.Build = append(version.Build, "b"+m[3])
		}
		return DatabaseVersion{Raw: raw, Product: ProductYugabyte, Version: version}, nil
	}

	if m := postgresVersionRegex.FindStringSubmatch(raw); m != nil {
		version, err := semver.ParseTolerant(m[1])
		if err != nil {
			return DatabaseVersion{Raw: raw}, fmt.Errorf("%w: %w", ErrUnparsableVersion, err)
		}
		return DatabaseVersion{Raw: raw, Product: ProductPostgres, Version: version}, nil
	}

	return DatabaseVersion{Raw: raw}, ErrUnparsableVersion
}

// DescribeVersionChange compares the versions of the two phases of a regression run and logs
// a warning when the switch did not produce a newer version.
func DescribeVersionChange(first, second DatabaseVersion) string {
	if first.Product == "" || second.Product == "" {
		log.Warn("Could not compare database versions %q and %q", first.Raw, second.Raw)
		return "unknown"
	}
	if first.Product != second.Product {
		return fmt.Sprintf("%s -> %s", first.Product, second.Product)
	}

	switch first.Version.Compare(second.Version) {
	case 0:
		// Build metadata is ignored by semver precedence.
		if first.Raw != second.Raw {
			return "rebuild"
		}
		log.Warn("Both phases ran against the same database version %s", first)
		return "same"
	case 1:
		log.Warn("Second version %s is older than first version %s", second, first)
		return "downgrade"
	default:
		return "upgrade"
	}
}
