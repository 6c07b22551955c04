package database

import "heartbridge/internal/docstore/sqlstore"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&sqlstore.Document{},
	}
}
