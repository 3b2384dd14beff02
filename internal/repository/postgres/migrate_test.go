package postgres

import (
	"strings"
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"
)

func TestLoadMigrations_Embedded(t *testing.T) {
	c := qt.New(t)

	migrations, err := LoadMigrations(migrationsDir)
	c.Assert(err, qt.IsNil)
	c.Assert(migrations, qt.HasLen, 4)

	for i, m := range migrations {
		c.Assert(m.Version, qt.Equals, i+1)
		c.Assert(strings.TrimSpace(m.SQL), qt.Not(qt.Equals), "")
	}
	c.Assert(migrations[0].SQL, qt.Contains, "CREATE TABLE IF NOT EXISTS pdf_documents")
	c.Assert(migrations[1].Description, qt.Equals, "versions metadata")
	c.Assert(migrations[3].SQL, qt.Contains, "CREATE UNIQUE INDEX IF NOT EXISTS idx_folders_parent_name")
	c.Assert(migrations[3].SQL, qt.Contains, "((COALESCE(parent_id, 0)), name)")
}

func TestLoadMigrations_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fsys    fstest.MapFS
		wantErr string
	}{
		{
			name:    "missing description",
			fsys:    fstest.MapFS{"0001.sql": {Data: []byte("SELECT 1;")}},
			wantErr: "migration 0001.sql: expected NNNN_description.sql",
		},
		{
			name:    "bad version",
			fsys:    fstest.MapFS{"abc_init.sql": {Data: []byte("SELECT 1;")}},
			wantErr: `migration abc_init.sql: invalid version "abc"`,
		},
		{
			name: "duplicate version",
			fsys: fstest.MapFS{
				"0001_a.sql": {Data: []byte("SELECT 1;")},
				"001_b.sql":  {Data: []byte("SELECT 1;")},
				"README.md":  {Data: []byte("ignored")},
			},
			wantErr: "migration 001_b.sql: version 1 already used by 0001_a.sql",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			_, err := LoadMigrations(tt.fsys)
			c.Assert(err, qt.ErrorMatches, tt.wantErr)
		})
	}
}

func TestLoadMigrations_Sorted(t *testing.T) {
	c := qt.New(t)
	fsys := fstest.MapFS{
		"0010_later.sql": {Data: []byte("SELECT 10;")},
		"0002_early.sql": {Data: []byte("SELECT 2;")},
	}

	migrations, err := LoadMigrations(fsys)
	c.Assert(err, qt.IsNil)
	c.Assert(migrations, qt.HasLen, 2)
	c.Assert(migrations[0].Version, qt.Equals, 2)
	c.Assert(migrations[1].Version, qt.Equals, 10)
}

func TestManagedTables_CoverMigrations(t *testing.T) {
	c := qt.New(t)
	migrations, err := LoadMigrations(migrationsDir)
	c.Assert(err, qt.IsNil)

	var all strings.Builder
	for _, m := range migrations {
		all.WriteString(m.SQL)
	}
	for _, table := range managedTables {
		if table == "schema_migrations" {
			continue
		}
		c.Check(all.String(), qt.Contains, "CREATE TABLE IF NOT EXISTS "+table+" ")
	}
	c.Assert(managedTables[len(managedTables)-1], qt.Equals, "schema_migrations")
}
