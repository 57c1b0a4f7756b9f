// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package store

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lireddit/lireddit/pkg/errutil"
)

func TestNewMigrator_InvalidURL(t *testing.T) {
	_, err := NewMigrator("invalid://url")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/lireddit", "pgx5://u:p@db:5432/lireddit"},
		{"postgresql://u:p@db:5432/lireddit", "pgx5://u:p@db:5432/lireddit"},
		{"pgx5://u:p@db:5432/lireddit", "pgx5://u:p@db:5432/lireddit"},
		{"mysql://x", "mysql://x"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, migrateURL(tt.in))
		})
	}
}

// mockMigrate implements migrateIface for testing.
type mockMigrate struct {
	upErr          error
	downErr        error
	versionVal     uint
	versionErr     error
	dirty          bool
	forceErr       error
	forced         *int
	closeSourceErr error
	closeDbErr     error
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Down() error                  { return m.downErr }
func (m *mockMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *mockMigrate) Close() (error, error)        { return m.closeSourceErr, m.closeDbErr }

func (m *mockMigrate) Force(v int) error {
	m.forced = &v
	return m.forceErr
}

func TestMigrator_Up(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		require.NoError(t, (&Migrator{m: &mockMigrate{}}).Up())
	})

	t.Run("no change is success", func(t *testing.T) {
		require.NoError(t, (&Migrator{m: &mockMigrate{upErr: migrate.ErrNoChange}}).Up())
	})

	t.Run("error", func(t *testing.T) {
		err := (&Migrator{m: &mockMigrate{upErr: errors.New("database locked")}}).Up()
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "MIGRATION_UP_FAILED")
	})
}

func TestMigrator_Down(t *testing.T) {
	t.Run("no change is success", func(t *testing.T) {
		require.NoError(t, (&Migrator{m: &mockMigrate{downErr: migrate.ErrNoChange}}).Down())
	})

	t.Run("error", func(t *testing.T) {
		err := (&Migrator{m: &mockMigrate{downErr: errors.New("constraint violation")}}).Down()
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "MIGRATION_DOWN_FAILED")
	})
}

func TestMigrator_Version(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		version, dirty, err := (&Migrator{m: &mockMigrate{versionVal: 1}}).Version()
		require.NoError(t, err)
		assert.Equal(t, uint(1), version)
		assert.False(t, dirty)
	})

	t.Run("dirty", func(t *testing.T) {
		_, dirty, err := (&Migrator{m: &mockMigrate{versionVal: 1, dirty: true}}).Version()
		require.NoError(t, err)
		assert.True(t, dirty)
	})

	t.Run("nil version is zero", func(t *testing.T) {
		version, dirty, err := (&Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}).Version()
		require.NoError(t, err)
		assert.Equal(t, uint(0), version)
		assert.False(t, dirty)
	})

	t.Run("error", func(t *testing.T) {
		_, _, err := (&Migrator{m: &mockMigrate{versionErr: errors.New("connection lost")}}).Version()
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "MIGRATION_VERSION_FAILED")
	})
}

func TestMigrator_Force(t *testing.T) {
	t.Run("passes version through", func(t *testing.T) {
		mock := &mockMigrate{}
		require.NoError(t, (&Migrator{m: mock}).Force(1))
		require.NotNil(t, mock.forced)
		assert.Equal(t, 1, *mock.forced)
	})

	t.Run("negative version rejected before reaching migrate", func(t *testing.T) {
		mock := &mockMigrate{}
		err := (&Migrator{m: mock}).Force(-1)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "INVALID_VERSION")
		assert.Nil(t, mock.forced)
	})

	t.Run("error", func(t *testing.T) {
		err := (&Migrator{m: &mockMigrate{forceErr: errors.New("bad")}}).Force(1)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "MIGRATION_FORCE_FAILED")
		errutil.AssertErrorContext(t, err, "version", 1)
	})
}

func TestMigrator_Close(t *testing.T) {
	tests := []struct {
		name      string
		srcErr    error
		dbErr     error
		component string
	}{
		{name: "success"},
		{name: "source error", srcErr: errors.New("source close failed"), component: "source"},
		{name: "database error", dbErr: errors.New("db close failed"), component: "database"},
		{name: "both", srcErr: errors.New("source close failed"), dbErr: errors.New("db close failed"), component: "both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Migrator{m: &mockMigrate{closeSourceErr: tt.srcErr, closeDbErr: tt.dbErr}}).Close()
			if tt.component == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
			errutil.AssertErrorContext(t, err, "component", tt.component)
		})
	}
}

func TestMigrator_PendingMigrations(t *testing.T) {
	t.Run("fresh database has every migration pending", func(t *testing.T) {
		pending, err := (&Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}).PendingMigrations()
		require.NoError(t, err)
		assert.Equal(t, []uint{1}, pending)
	})

	t.Run("at latest nothing is pending", func(t *testing.T) {
		pending, err := (&Migrator{m: &mockMigrate{versionVal: 1}}).PendingMigrations()
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("version error carries operation", func(t *testing.T) {
		_, err := (&Migrator{m: &mockMigrate{versionErr: errors.New("connection lost")}}).PendingMigrations()
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "operation", "get pending migrations")
	})
}

func TestMigrationName(t *testing.T) {
	name, err := MigrationName(1)
	require.NoError(t, err)
	assert.Equal(t, "000001_create_accounts", name)

	name, err = MigrationName(999)
	require.NoError(t, err)
	assert.Empty(t, name)
}
