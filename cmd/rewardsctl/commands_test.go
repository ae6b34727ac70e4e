package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewards/internal/core"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runAppStderr(t, args...)
	return out, err
}

func runAppStderr(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"rewardsctl"}, args...))
	return out.String(), errOut.String(), err
}

// clearStoreEnv unsets store variables so flag defaults apply. An empty
// value would still count as set for the flags.
func clearStoreEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DATA_BACKEND", "SQLITE_DB_PATH", "DATABASE_URL", "SEED_FILE", "AMQP_URL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestCalculateCommand_Memory(t *testing.T) {
	clearStoreEnv(t)

	out, err := runApp(t, "calculate", "--customer", "CUST001")
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "CUST001", resp["customerId"])
	assert.Equal(t, float64(290), resp["totalRewards"])
	assert.NotContains(t, resp, "transactions")
}

func TestGlobalFlags(t *testing.T) {
	clearStoreEnv(t)

	out, err := runApp(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "rewardsctl version dev (commit: unknown)")

	out, err = runApp(t, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "rewardsctl version")

	out, err = runApp(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "calculate")
	assert.Contains(t, out, "--verbose")

	dbPath := filepath.Join(t.TempDir(), "rewards.db")
	out, stderr, err := runAppStderr(t, "--verbose", "--backend", "sqlite", "--sqlite-path", dbPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied to sqlite")
	assert.Contains(t, stderr, "Migrations applied", "verbose logs go to stderr")
}

func TestCalculateCommand_BoundedRange(t *testing.T) {
	clearStoreEnv(t)

	out, err := runApp(t, "calculate", "-c", "CUST004", "--from", "2024-05-01", "--to", "2024-06-30")
	require.NoError(t, err)
	assert.Contains(t, out, `"totalRewards": 255`)
	assert.Contains(t, out, `"transactions"`)
}

func TestCalculateCommand_Errors(t *testing.T) {
	clearStoreEnv(t)

	_, err := runApp(t, "calculate", "--customer", "CUST001", "--from", "yesterday")
	assert.True(t, errors.Is(err, core.ErrInvalidDate), "got %v", err)

	_, err = runApp(t, "calculate", "--customer", "CUST999")
	assert.True(t, errors.Is(err, core.ErrCustomerNotFound), "got %v", err)

	_, err = runApp(t, "calculate", "--customer", "CUST001", "--from", "2024-07-01", "--to", "2024-06-01")
	assert.True(t, errors.Is(err, core.ErrInvalidRange), "got %v", err)
}

func TestImportThenCalculate_SQLite(t *testing.T) {
	clearStoreEnv(t)
	dbPath := filepath.Join(t.TempDir(), "rewards.db")
	seed := filepath.Join("..", "..", "data", "transactions.yaml")

	out, err := runApp(t, "--backend", "sqlite", "--sqlite-path", dbPath, "import", "--file", seed)
	require.NoError(t, err)
	assert.Equal(t, "Imported 9 transactions into sqlite\n", out)

	out, err = runApp(t, "--backend", "sqlite", "--sqlite-path", dbPath, "calculate", "--customer", "cust001")
	require.NoError(t, err)
	assert.Contains(t, out, `"totalRewards": 290`)

	_, err = runApp(t, "--backend", "sqlite", "--sqlite-path", dbPath, "import", "--file", seed)
	assert.Error(t, err, "importing the same ids twice must fail")
}

func TestImportCommand_RejectsMemoryAndDryRun(t *testing.T) {
	clearStoreEnv(t)
	seed := filepath.Join("..", "..", "data", "transactions.yaml")

	_, err := runApp(t, "import", "--file", seed)
	assert.ErrorContains(t, err, "persistent backend")

	out, err := runApp(t, "import", "--file", seed, "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "9 transactions valid\n", out)
}

func TestMigrateCommand(t *testing.T) {
	clearStoreEnv(t)
	dbPath := filepath.Join(t.TempDir(), "rewards.db")

	out, err := runApp(t, "--backend", "sqlite", "--sqlite-path", dbPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied to sqlite")
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)

	_, err = runApp(t, "migrate")
	assert.ErrorContains(t, err, "no schema to migrate")
}
