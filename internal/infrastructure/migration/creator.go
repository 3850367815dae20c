package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const (
	upSuffix      = ".up.sql"
	downSuffix    = ".down.sql"
	versionDigits = 6
)

var migrationTemplate = template.Must(template.New("migration").Parse(`-- {{.Name}}{{if .Down}} (rollback){{end}}
-- Created: {{.Timestamp}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`))

// ErrEmptyMigrationName is returned when the name sanitizes to nothing
var ErrEmptyMigrationName = errors.New("migration name must contain letters or digits")

// MigrationFile is a created up/down pair
type MigrationFile struct {
	Version     uint
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// BaseName returns the shared file name prefix, e.g. 000006_add_wishlist
func (f *MigrationFile) BaseName() string {
	return strings.TrimSuffix(filepath.Base(f.UpPath), upSuffix)
}

// CreateMigration writes an empty up/down pair numbered one past the highest
// existing version in dir
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	clean := sanitizeName(name)
	if clean == "" {
		return nil, ErrEmptyMigrationName
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}
	existing, err := ListMigrations(dir)
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	base := fmt.Sprintf("%0*d_%s", versionDigits, next, clean)
	mf := &MigrationFile{
		Version:     next,
		Name:        clean,
		Description: strings.TrimSpace(description),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		UpPath:      filepath.Join(dir, base+upSuffix),
		DownPath:    filepath.Join(dir, base+downSuffix),
	}

	if err := writeMigrationFile(mf.UpPath, mf, false); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := writeMigrationFile(mf.DownPath, mf, true); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}
	return mf, nil
}

func writeMigrationFile(path string, mf *MigrationFile, down bool) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()

	return migrationTemplate.Execute(f, struct {
		*MigrationFile
		Down bool
	}{mf, down})
}

// sanitizeName lowercases the name and folds separators into single underscores
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			s := b.String()
			if len(s) > 0 && s[len(s)-1] != '_' {
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// MigrationInfo describes one migration found on disk
type MigrationInfo struct {
	Version uint
	Name    string
	HasDown bool
}

// ListMigrations returns the migrations in dir ordered by version. Files that
// do not follow the <version>_<name>.up.sql pattern are ignored. A missing
// directory yields an empty list.
func ListMigrations(dir string) ([]MigrationInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []MigrationInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	downs := make(map[string]bool)
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), downSuffix) {
			downs[strings.TrimSuffix(e.Name(), downSuffix)] = true
		}
	}

	list := make([]MigrationInfo, 0)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), upSuffix) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), upSuffix)
		prefix, rest, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		version, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		list = append(list, MigrationInfo{Version: uint(version), Name: rest, HasDown: downs[base]})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Version < list[j].Version })
	return list, nil
}
