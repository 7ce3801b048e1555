package storage

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/contexo/internal/common"
	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/storage/badger"
	"github.com/ternarybob/contexo/internal/storage/sqlite"
)

// Manager wires the concrete stores behind interfaces.StorageManager:
// SQLite for nodes, vectors, and ingestion lifecycle; Badger for key/value.
type Manager struct {
	sqliteDB *sqlite.SQLiteDB
	badgerDB *badger.BadgerDB

	nodes      interfaces.NodeStorage
	vectors    interfaces.VectorStorage
	ingestions interfaces.IngestionStorage
	kv         interfaces.KeyValueStorage

	logger arbor.ILogger
}

var _ interfaces.StorageManager = (*Manager)(nil)

// NewManager opens both databases and constructs the storage services
func NewManager(config *common.Config, logger arbor.ILogger) (*Manager, error) {
	sqliteDB, err := sqlite.NewSQLiteDB(logger, &config.Storage.SQLite)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sqlite: %w", err)
	}

	badgerDB, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("failed to initialize badger: %w", err)
	}

	m := &Manager{
		sqliteDB:   sqliteDB,
		badgerDB:   badgerDB,
		nodes:      sqlite.NewNodeStorage(sqliteDB, logger),
		vectors:    sqlite.NewVectorStorage(sqliteDB, logger),
		ingestions: sqlite.NewIngestionStorage(sqliteDB, logger),
		kv:         badger.NewKVStorage(badgerDB, logger),
		logger:     logger,
	}
	m.seedDefaults()
	return m, nil
}

// seedDefaults writes the default KV values that do not exist yet. Existing
// keys keep their stored values.
func (m *Manager) seedDefaults() {
	ctx := context.Background()
	for _, kv := range common.GetDefaultKVValues() {
		if _, err := m.kv.Get(ctx, kv.Key); err == nil {
			continue
		}
		if err := m.kv.Set(ctx, kv.Key, kv.Value, kv.Description); err != nil {
			m.logger.Warn().Err(err).Str("key", kv.Key).Msg("Failed to seed default KV value")
		}
	}
}

func (m *Manager) NodeStorage() interfaces.NodeStorage           { return m.nodes }
func (m *Manager) VectorStorage() interfaces.VectorStorage       { return m.vectors }
func (m *Manager) IngestionStorage() interfaces.IngestionStorage { return m.ingestions }
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage   { return m.kv }

// Close closes both databases, reporting the first error
func (m *Manager) Close() error {
	var firstErr error
	if err := m.sqliteDB.Close(); err != nil {
		firstErr = err
	}
	if err := m.badgerDB.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return fmt.Errorf("failed to close storage: %w", firstErr)
	}
	m.logger.Info().Msg("Storage closed")
	return nil
}
