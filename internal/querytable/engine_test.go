package querytable

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/huangsam/loadcompare/internal/contract"
	"github.com/huangsam/loadcompare/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleDataset builds n results with two metrics.
func sampleDataset(n int) schema.NormalizedDataset {
	ds := schema.NormalizedDataset{
		ScenarioID:       "s1",
		AvailableMetrics: []string{"throughput", "latency"},
	}
	for i := range n {
		ds.Results = append(ds.Results, schema.TestResult{
			TestCondition: fmt.Sprintf("cond_%03d", i),
			Parameters: map[string]float64{
				"parameter_1": float64(100 * (i%2 + 1)),
				"parameter_2": 20,
				"parameter_3": 5,
			},
			ScenarioA: map[string]float64{"throughput": 1000, "latency": 10},
			ScenarioB: map[string]float64{"throughput": 1100, "latency": 9},
		})
	}
	return ds
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(schema.SQLiteBackend, ":memory:")
	_, err := e.Initialize(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngineLifecycle(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(schema.SQLiteBackend, "")

	t.Run("operations before initialize", func(t *testing.T) {
		_, err := e.ExecuteQuery(ctx, "SELECT 1")
		assert.ErrorIs(t, err, contract.ErrNotInitialized)

		err = e.CreateTable(ctx, sampleDataset(1), "test_data")
		assert.ErrorIs(t, err, contract.ErrNotInitialized)

		assert.NoError(t, e.DropTable(ctx, "test_data"))
		assert.NoError(t, e.Close())

		status, err := e.Status(ctx, "test_data")
		require.NoError(t, err)
		assert.False(t, status.Initialized)
	})

	t.Run("initialize is idempotent", func(t *testing.T) {
		db1, err := e.Initialize(ctx)
		require.NoError(t, err)
		db2, err := e.Initialize(ctx)
		require.NoError(t, err)
		assert.Same(t, db1, db2)
	})

	t.Run("close is idempotent and allows re-initialize", func(t *testing.T) {
		assert.NoError(t, e.Close())
		assert.NoError(t, e.Close())

		_, err := e.ExecuteQuery(ctx, "SELECT 1")
		assert.ErrorIs(t, err, contract.ErrNotInitialized)

		db, err := e.Initialize(ctx)
		require.NoError(t, err)
		assert.NotNil(t, db)
		assert.NoError(t, e.Close())
	})
}

func TestEngineUnsupportedBackend(t *testing.T) {
	e := NewEngine(schema.DatabaseBackend("oracle"), "x")
	_, err := e.Initialize(context.Background())
	assert.ErrorIs(t, err, contract.ErrUnsupportedBackend)
}

func TestCreateTableAndQuery(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.CreateTable(ctx, sampleDataset(3), "test_data"))

	records, err := e.ExecuteQuery(ctx, "SELECT test_condition, parameter_1, scenario_a_throughput, scenario_b_latency FROM test_data ORDER BY test_condition")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "cond_000", records[0]["test_condition"])
	assert.Equal(t, 100.0, records[0]["parameter_1"])
	assert.Equal(t, 200.0, records[1]["parameter_1"])
	assert.Equal(t, 1000.0, records[0]["scenario_a_throughput"])
	assert.Equal(t, 9.0, records[2]["scenario_b_latency"])

	status, err := e.Status(ctx, "test_data")
	require.NoError(t, err)
	assert.True(t, status.Initialized)
	assert.True(t, status.TableExists)
	assert.Equal(t, 3, status.RowCount)
}

func TestCreateTableBatchesInserts(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.CreateTable(ctx, sampleDataset(250), "test_data"))

	records, err := e.ExecuteQuery(ctx, "SELECT COUNT(*) AS n FROM test_data")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 250.0, records[0]["n"])
}

func TestCreateTableEscapesAndNulls(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	ds := schema.NormalizedDataset{
		AvailableMetrics: []string{"throughput"},
		Results: []schema.TestResult{{
			TestCondition: "o'brien's run",
			Parameters:    map[string]float64{"parameter_1": math.NaN()},
			ScenarioA:     map[string]float64{"throughput": math.Inf(1)},
			ScenarioB:     map[string]float64{"throughput": 5},
		}},
	}
	require.NoError(t, e.CreateTable(ctx, ds, "test_data"))

	records, err := e.ExecuteQuery(ctx, "SELECT test_condition, parameter_1, scenario_a_throughput, scenario_b_throughput FROM test_data")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "o'brien's run", records[0]["test_condition"])
	assert.Nil(t, records[0]["parameter_1"])
	assert.Nil(t, records[0]["scenario_a_throughput"])
	assert.Equal(t, 5.0, records[0]["scenario_b_throughput"])
}

func TestCreateTableEmptyDataset(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.CreateTable(ctx, schema.NormalizedDataset{}, "test_data"))

	records, err := e.ExecuteQuery(ctx, "SELECT test_condition, parameter_1, parameter_2, parameter_3 FROM test_data")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCreateTableReplacesExisting(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.CreateTable(ctx, sampleDataset(5), "test_data"))
	require.NoError(t, e.CreateTable(ctx, sampleDataset(2), "test_data"))

	status, err := e.Status(ctx, "test_data")
	require.NoError(t, err)
	assert.Equal(t, 2, status.RowCount)

	require.NoError(t, e.DropTable(ctx, "test_data"))
	status, err = e.Status(ctx, "test_data")
	require.NoError(t, err)
	assert.False(t, status.TableExists)
}

func TestCreateTableRejectsBadIdentifiers(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	err := e.CreateTable(ctx, sampleDataset(1), "test-data")
	assert.ErrorIs(t, err, contract.ErrInvalidTableName)

	err = e.DropTable(ctx, "x; DROP TABLE y")
	assert.ErrorIs(t, err, contract.ErrInvalidTableName)

	ds := schema.NormalizedDataset{
		AvailableMetrics: []string{"p99 latency"},
		Results: []schema.TestResult{{
			TestCondition: "a",
			ScenarioA:     map[string]float64{"p99 latency": 1},
			ScenarioB:     map[string]float64{"p99 latency": 2},
		}},
	}
	err = e.CreateTable(ctx, ds, "test_data")
	assert.ErrorIs(t, err, contract.ErrInvalidColumnName)
}

func TestExecuteQueryFailure(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.ExecuteQuery(context.Background(), "SELECT nope FROM missing_table")
	assert.ErrorIs(t, err, contract.ErrQueryExecution)
}

func TestTableColumns(t *testing.T) {
	cols := tableColumns(sampleDataset(1))
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	assert.Equal(t, []string{
		"test_condition", "parameter_1", "parameter_2", "parameter_3",
		"scenario_a_throughput", "scenario_a_latency",
		"scenario_b_throughput", "scenario_b_latency",
	}, names)
	assert.Equal(t, textColumn, cols[0].kind)
	assert.Equal(t, numberColumn, cols[1].kind)
}

func TestColumnType(t *testing.T) {
	assert.Equal(t, "VARCHAR", columnType(textColumn, schema.SQLiteBackend))
	assert.Equal(t, "DOUBLE", columnType(numberColumn, schema.SQLiteBackend))
	assert.Equal(t, "TEXT", columnType(textColumn, schema.MySQLBackend))
	assert.Equal(t, "DOUBLE", columnType(numberColumn, schema.MySQLBackend))
	assert.Equal(t, "DOUBLE PRECISION", columnType(numberColumn, schema.PostgreSQLBackend))
}

func TestNormalizeValue(t *testing.T) {
	assert.Nil(t, normalizeValue("parameter_1", nil))
	assert.Equal(t, 12.5, normalizeValue("parameter_1", []byte("12.5")))
	assert.Equal(t, "100", normalizeValue("test_condition", []byte("100")))
	assert.Equal(t, "100", normalizeValue("TEST_CONDITION", "100"))
	assert.Equal(t, 7.0, normalizeValue("n", int64(7)))
	assert.Equal(t, "abc", normalizeValue("x", "abc"))
}
