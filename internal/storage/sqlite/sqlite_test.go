package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ternarybob/contexo/internal/common"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(common.GetLogger(), &common.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "contexo_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
