package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const versionLayout = "20060102150405"

var (
	versionedName = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	unsafeChars   = regexp.MustCompile(`[^a-z0-9]+`)
	markers       = []string{"-- +goose Up", "-- +goose Down"}
)

const sqlTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- undo %[1]s
-- +goose StatementEnd
`

// Slug turns a free-form description into a migration file suffix.
func Slug(name string) string {
	return strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// Create writes an empty migration named <version>_<slug>.sql into dir and
// refuses to overwrite an existing file.
func Create(dir, name string, now time.Time) (string, error) {
	slug := Slug(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	target := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", now.UTC().Format(versionLayout), slug))
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := fmt.Fprintf(f, sqlTemplate, slug); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, f.Close()
}

// Validate checks every .sql file at the root of fsys: versioned name, a
// version used once, and both goose sections. All problems are reported.
func Validate(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	var errs error
	versions := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		m := versionedName.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if prev, dup := versions[m[1]]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %s already used by %s", name, m[1], prev))
			continue
		}
		versions[m[1]] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		for _, marker := range markers {
			if !strings.Contains(string(body), marker) {
				errs = multierr.Append(errs, fmt.Errorf("%s: missing %q", name, marker))
			}
		}
	}
	return errs
}
