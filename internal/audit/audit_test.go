package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log", "workflow.log")
	l := New(true, path)
	l.now = func() time.Time { return time.Date(2026, 2, 1, 8, 30, 0, 0, time.UTC) }

	l.Record(LevelInfo, "AdvanceStage", StatusSuccess, "poc-1", "stage=R2")
	l.Record(LevelWarning, "CreateOffer", StatusFail, "", "")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"2026-02-01T08:30:00Z | info | AdvanceStage | Success | poc-1 | stage=R2\n"+
			"2026-02-01T08:30:00Z | warning | CreateOffer | Fail\n",
		string(content))
}

func TestRecord_Disabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflow.log")
	New(false, path).Record(LevelInfo, "AdvanceStage", StatusSuccess, "poc-1", "")

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	var nilLogger *Logger
	assert.NotPanics(t, func() { nilLogger.Record(LevelInfo, "x", StatusSuccess, "", "") })
}
