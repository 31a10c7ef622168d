package db

import (
	"testing"
	"testing/fstest"

	"perfcycle/migrations"
)

func TestMigrationFilesSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_b.sql":   {Data: []byte("SELECT 2")},
		"0001_a.sql":   {Data: []byte("SELECT 1")},
		"README.md":    {Data: []byte("docs")},
		"nested/x.sql": {Data: []byte("SELECT 3")},
	}
	files, err := migrationFiles(fsys)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 || files[0] != "0001_a.sql" || files[1] != "0002_b.sql" {
		t.Fatalf("unexpected files: %v", files)
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := migrationFiles(migrations.FS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("expected embedded migrations")
	}
}

func TestLoadMigrationsChecksums(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_init.sql":  {Data: []byte("CREATE TABLE a (id INT);")},
		"0002_extra.sql": {Data: []byte("CREATE TABLE b (id INT);")},
	}
	first, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(first) != 2 || first[0].version != "0001_init" || first[1].version != "0002_extra" {
		t.Fatalf("unexpected migrations: %+v", first)
	}
	if first[0].checksum == first[1].checksum || len(first[0].checksum) != 64 {
		t.Fatalf("expected distinct sha256 checksums, got %q and %q", first[0].checksum, first[1].checksum)
	}

	fsys["0001_init.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE a (id BIGINT);")}
	edited, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if edited[0].checksum == first[0].checksum {
		t.Fatal("expected an edited file to change its checksum")
	}
	if edited[1].checksum != first[1].checksum {
		t.Fatal("expected an untouched file to keep its checksum")
	}
}
