package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
)

//go:embed migrations/*.sql
var EmbeddedMigrationsFS embed.FS

// parsed once per process, the embedded set cannot change at runtime
var (
	embeddedMigrationCache     []*MigrationFile
	embeddedMigrationCacheErr  error
	embeddedMigrationCacheOnce sync.Once
)

// getEmbeddedMigrationFiles reads and parses all migration files from embedded filesystem
func getEmbeddedMigrationFiles() ([]*MigrationFile, error) {
	embeddedMigrationCacheOnce.Do(func() {
		embeddedMigrationCache, embeddedMigrationCacheErr = listMigrations(EmbeddedMigrationsFS, "migrations")
	})
	if embeddedMigrationCacheErr != nil {
		return nil, embeddedMigrationCacheErr
	}
	// copy so callers can't reorder the cache
	out := make([]*MigrationFile, len(embeddedMigrationCache))
	copy(out, embeddedMigrationCache)
	return out, nil
}

func listMigrations(fsys fs.FS, dir string) ([]*MigrationFile, error) {
	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations directory: %w", err)
	}

	var migrations []*MigrationFile
	seen := make(map[int]string)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".sql") {
			continue
		}
		migration, err := parseEmbeddedMigrationFileName(f.Name())
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[migration.Version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d: %s and %s", migration.Version, prev, f.Name())
		}
		seen[migration.Version] = f.Name()
		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// parseEmbeddedMigrationFileName parses NNNN_type_description.sql
func parseEmbeddedMigrationFileName(fileName string) (*MigrationFile, error) {
	if !strings.HasSuffix(fileName, ".sql") {
		return nil, fmt.Errorf("migration file must have .sql extension: %s", fileName)
	}
	base := strings.TrimSuffix(fileName, ".sql")

	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid migration filename format: %s (expected format: NNNN_type_description.sql)", fileName)
	}

	version, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid version number in filename %s: %w", fileName, err)
	}

	var migrationType MigrationType
	switch parts[1] {
	case "main":
		migrationType = MigrationTypeMain
	default:
		return nil, fmt.Errorf("unknown migration type in filename %s: %s", fileName, parts[1])
	}

	return &MigrationFile{
		FileName:    fileName,
		Version:     version,
		Type:        migrationType,
		Description: strings.Join(parts[2:], "_"),
	}, nil
}

// readEmbeddedMigrationContent reads the content of an embedded migration file
func readEmbeddedMigrationContent(fileName string) ([]byte, error) {
	content, err := fs.ReadFile(EmbeddedMigrationsFS, path.Join("migrations", fileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migration file %s: %w", fileName, err)
	}
	return content, nil
}
