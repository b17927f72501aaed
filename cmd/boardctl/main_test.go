package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"task-board-api/internal/database"
	"task-board-api/internal/domain"
	"task-board-api/internal/repository"
)

// writeConfig points boardctl at a sqlite file in a temp dir
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "board.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "database:\n  driver: sqlite\n  name: " + dbPath + "\nautomation:\n  due_date_scan_spec: \"\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))
	return cfgPath, dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBoardctl_MigrateThenListRules(t *testing.T) {
	cfgPath, dbPath := writeConfig(t)

	out, err := run(t, "migrate", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	db, err := database.New(database.Config{Driver: database.DriverSQLite, DSN: dbPath})
	require.NoError(t, err)
	projectID := uuid.New()
	rule := &domain.AutomationRule{
		ProjectID:     projectID,
		Name:          "Close out",
		Trigger:       domain.TriggerStatusChange,
		TriggerConfig: datatypes.JSON(`{"fromStatus":"any","toStatus":"completed"}`),
		Action:        domain.ActionUpdatePriority,
		ActionConfig:  datatypes.JSON(`{"newPriority":"low"}`),
		IsActive:      true,
	}
	require.NoError(t, repository.NewRuleRepository(db).Create(context.Background(), rule))
	require.NoError(t, database.Close(db))

	out, err = run(t, "rules", "list", "--config", cfgPath, "--project", projectID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Close out")
	assert.Contains(t, out, "status_change")

	out, err = run(t, "rules", "disable", rule.ID.String(), "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "active=false")

	out, err = run(t, "rules", "list", "--config", cfgPath, "--project", projectID.String(), "--json")
	require.NoError(t, err)
	var listed []domain.AutomationRule
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.False(t, listed[0].IsActive)
}

func TestBoardctl_ScanDueDatesOnEmptyBoard(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	_, err := run(t, "migrate", "--config", cfgPath)
	require.NoError(t, err)

	out, err := run(t, "scan-due-dates", "--config", cfgPath, "--at", "2025-06-10T09:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, `"fired": 0`)
}

func TestBoardctl_RejectsBadInput(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	_, err := run(t, "rules", "list", "--config", cfgPath, "--project", "nope")
	assert.Error(t, err)

	_, err = run(t, "scan-due-dates", "--config", cfgPath, "--at", "yesterday")
	assert.Error(t, err)
}
