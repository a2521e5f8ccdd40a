package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedPostgres(t *testing.T) {
	files, err := load(PostgresFS, "postgres")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	assert.Equal(t, "001_swap_gateway", files[0].Version)
	assert.Contains(t, files[0].SQL, "CREATE TABLE IF NOT EXISTS swap_records")
	assert.Contains(t, files[0].SQL, "CREATE TABLE IF NOT EXISTS fee_ledger")
	assert.Contains(t, files[0].SQL, "CREATE TABLE IF NOT EXISTS tokens")
}

func TestEmbeddedClickhouseSplits(t *testing.T) {
	files, err := load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		require.NoError(t, validateNoSemicolonInStrings(f.SQL), f.Version)
		stmts := splitStatements(f.SQL)
		assert.NotEmpty(t, stmts, f.Version)
		for _, s := range stmts {
			assert.NotContains(t, s, ";")
		}
	}
}

func TestSplitStatements(t *testing.T) {
	sql := `
-- header comment
CREATE TABLE a (x UInt8) ENGINE = Memory;

CREATE TABLE b (y UInt8)
ENGINE = Memory;
`
	stmts := splitStatements(sql)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x UInt8) ENGINE = Memory", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y UInt8)\nENGINE = Memory", stmts[1])
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings(`SELECT 'it''s'; SELECT 1;`))
	assert.Error(t, validateNoSemicolonInStrings(`SELECT 'a;b'`))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/gateway")
	require.NoError(t, err)
	assert.Equal(t, "gateway", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
