package mssql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"ytetl/internal/storage"
)

func TestBulkTable(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want string }{
		{"videos", "[videos]"},
		{"dbo.videos", "[dbo].[videos]"},
		{"odd]name", "[odd]]name]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bulkTable(tt.in))
	}
}

func TestNewRepository_RejectsBadDSN(t *testing.T) {
	t.Parallel()

	_, err := NewRepository(context.Background(), "sqlserver://%zz")
	assert.ErrorContains(t, err, "mssql: dsn")
}

func TestRegistered(t *testing.T) {
	t.Parallel()
	assert.Contains(t, storage.ListKinds(), "mssql")
}
