package mysql

import (
	"fmt"

	"tunneld/pkg/store/mysql/model"
)

// Repository aggregates all MySQL repositories
type Repository struct {
	ds *Datastore

	Archive   *ArchiveRepository
	Inventory *InventoryRepository
}

// NewRepository creates a new MySQL repository with all sub-repositories.
// The archive and inventory tables (plus their indexes) are provisioned if
// they do not exist yet.
func NewRepository(dsn string) (*Repository, error) {
	ds, err := NewDatastore(dsn)
	if err != nil {
		return nil, err
	}

	if err := Migrate(ds); err != nil {
		return nil, err
	}

	return &Repository{
		ds:        ds,
		Archive:   NewArchiveRepository(ds),
		Inventory: NewInventoryRepository(ds),
	}, nil
}

// Migrate auto-provisions the schema for all managed tables
func Migrate(ds *Datastore) error {
	err := ds.GetDB().AutoMigrate(
		&model.TrafficArchiveRecord{},
		&model.StatusChangeRecord{},
		&model.Endpoint{},
		&model.Tunnel{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// GetDatastore returns the underlying datastore for transaction support
func (r *Repository) GetDatastore() *Datastore {
	return r.ds
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.ds.Close()
}
