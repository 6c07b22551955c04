package database

import (
	"testing"

	"heartbridge/internal/docstore/sqlstore"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesDocuments(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*sqlstore.Document); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include the documents table")
}
