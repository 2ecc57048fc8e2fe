/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package migrate

import (
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
)

// A migration on disk is four SQL files sharing one identifier:
//
//	<version>_<name>.primary.up.sql
//	<version>_<name>.primary.down.sql
//	<version>_<name>.analytics.up.sql
//	<version>_<name>.analytics.down.sql
//
// The version is the numeric prefix of the identifier (e.g. 20160601192854)
// and orders migrations ascending.
const (
	primaryUpSuffix     = ".primary.up.sql"
	primaryDownSuffix   = ".primary.down.sql"
	analyticsUpSuffix   = ".analytics.up.sql"
	analyticsDownSuffix = ".analytics.down.sql"
)

type migrationFiles struct {
	primaryUp     string
	primaryDown   string
	analyticsUp   string
	analyticsDown string
}

func (f *migrationFiles) missing() []string {
	var missing []string
	if f.primaryUp == "" {
		missing = append(missing, primaryUpSuffix)
	}
	if f.primaryDown == "" {
		missing = append(missing, primaryDownSuffix)
	}
	if f.analyticsUp == "" {
		missing = append(missing, analyticsUpSuffix)
	}
	if f.analyticsDown == "" {
		missing = append(missing, analyticsDownSuffix)
	}
	return missing
}

// LoadFSMigrations loads all migrations found in the directory of the filesystem.
// Every migration identifier must come with all four backend/direction files;
// a partial set fails with ErrIncompleteDefinition. The returned migrations are
// sorted by ascending version and are NOT registered anywhere.
func LoadFSMigrations(fsys fs.FS, dirName string) ([]*Migration, error) {
	entries, err := fs.ReadDir(fsys, dirName)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dirName, err)
	}

	groups := make(map[string]*migrationFiles)
	group := func(id string) *migrationFiles {
		g, ok := groups[id]
		if !ok {
			g = &migrationFiles{}
			groups[id] = g
		}
		return g
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := dirName + "/" + name
		switch {
		case strings.HasSuffix(name, primaryUpSuffix):
			group(strings.TrimSuffix(name, primaryUpSuffix)).primaryUp = path
		case strings.HasSuffix(name, primaryDownSuffix):
			group(strings.TrimSuffix(name, primaryDownSuffix)).primaryDown = path
		case strings.HasSuffix(name, analyticsUpSuffix):
			group(strings.TrimSuffix(name, analyticsUpSuffix)).analyticsUp = path
		case strings.HasSuffix(name, analyticsDownSuffix):
			group(strings.TrimSuffix(name, analyticsDownSuffix)).analyticsDown = path
		}
	}

	migrations := make([]*Migration, 0, len(groups))
	for id, files := range groups {
		if missing := files.missing(); len(missing) != 0 {
			return nil, fmt.Errorf("%w: migration %s is missing %s files",
				ErrIncompleteDefinition, id, strings.Join(missing, ", "))
		}

		version, err := parseVersion(id)
		if err != nil {
			return nil, err
		}

		primary, err := loadUnit(fsys, files.primaryUp, files.primaryDown)
		if err != nil {
			return nil, fmt.Errorf("load primary unit of migration %s: %w", id, err)
		}
		analytics, err := loadUnit(fsys, files.analyticsUp, files.analyticsDown)
		if err != nil {
			return nil, fmt.Errorf("load analytics unit of migration %s: %w", id, err)
		}

		m, err := NewMigration(version, primary, analytics)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version() < migrations[j].Version()
	})
	return migrations, nil
}

// RegisterFSMigrations loads all migrations from the directory and registers
// them into the given registry.
func RegisterFSMigrations(reg *Registry, fsys fs.FS, dirName string) ([]*Migration, error) {
	migrations, err := LoadFSMigrations(fsys, dirName)
	if err != nil {
		return nil, err
	}
	for _, m := range migrations {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return migrations, nil
}

func loadUnit(fsys fs.FS, upPath, downPath string) (MigrationUnit, error) {
	upContent, err := fs.ReadFile(fsys, upPath)
	if err != nil {
		return MigrationUnit{}, fmt.Errorf("read %s: %w", upPath, err)
	}
	downContent, err := fs.ReadFile(fsys, downPath)
	if err != nil {
		return MigrationUnit{}, fmt.Errorf("read %s: %w", downPath, err)
	}
	return NewMigrationUnit(
		SQL(parseSQL(string(upContent))...),
		SQL(parseSQL(string(downContent))...),
	), nil
}

// parseVersion extracts the numeric version prefix from a migration identifier.
func parseVersion(id string) (int64, error) {
	numeric := id
	if idx := strings.IndexByte(id, '_'); idx >= 0 {
		numeric = id[:idx]
	}
	version, err := strconv.ParseInt(numeric, 10, 64)
	if err != nil || version <= NoMigrationsVersion {
		return 0, fmt.Errorf("migration %s has no valid numeric version prefix", id)
	}
	return version, nil
}

// parseSQL splits SQL content into individual statements.
// This is a simple implementation that splits on semicolons.
// A more sophisticated parser could handle edge cases like semicolons in strings.
func parseSQL(content string) []string {
	var statements []string
	lines := strings.Split(content, "\n")
	var currentStmt strings.Builder

	for _, line := range lines {
		// Skip SQL comments (simple implementation)
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "--") || strings.HasPrefix(trimmed, "#") {
			continue
		}

		// Handle multi-line statements
		currentStmt.WriteString(line)
		currentStmt.WriteString("\n")

		// Check if statement is complete (ends with semicolon)
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSpace(currentStmt.String())
			if stmt != "" && stmt != ";" {
				statements = append(statements, stmt)
			}
			currentStmt.Reset()
		}
	}

	// Add any remaining statement
	if currentStmt.Len() > 0 {
		stmt := strings.TrimSpace(currentStmt.String())
		if stmt != "" && stmt != ";" {
			statements = append(statements, stmt)
		}
	}

	return statements
}
