package querytable

import (
	"context"
	"database/sql"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/stretchr/testify/mock"
)

// MockQueryEngine is a mock implementation of QueryEngine for testing.
type MockQueryEngine struct {
	mock.Mock
}

var _ contract.QueryEngine = &MockQueryEngine{} // Compile-time check

// Initialize implements the QueryEngine interface.
func (m *MockQueryEngine) Initialize(ctx context.Context) (*sql.DB, error) {
	args := m.Called(ctx)
	db, _ := args.Get(0).(*sql.DB)
	return db, args.Error(1)
}

// CreateTable implements the QueryEngine interface.
func (m *MockQueryEngine) CreateTable(ctx context.Context, dataset schema.NormalizedDataset, tableName string) error {
	args := m.Called(ctx, dataset, tableName)
	return args.Error(0)
}

// ExecuteQuery implements the QueryEngine interface.
func (m *MockQueryEngine) ExecuteQuery(ctx context.Context, query string) ([]schema.Record, error) {
	args := m.Called(ctx, query)
	records, _ := args.Get(0).([]schema.Record)
	return records, args.Error(1)
}

// DropTable implements the QueryEngine interface.
func (m *MockQueryEngine) DropTable(ctx context.Context, tableName string) error {
	args := m.Called(ctx, tableName)
	return args.Error(0)
}

// Status implements the QueryEngine interface.
func (m *MockQueryEngine) Status(ctx context.Context, tableName string) (schema.EngineStatus, error) {
	args := m.Called(ctx, tableName)
	return args.Get(0).(schema.EngineStatus), args.Error(1)
}

// Close implements the QueryEngine interface.
func (m *MockQueryEngine) Close() error {
	args := m.Called()
	return args.Error(0)
}
