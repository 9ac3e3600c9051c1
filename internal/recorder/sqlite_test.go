package recorder

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalSentinel/internal/model"
)

func openTest(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecordSignal(t *testing.T) {
	r := openTest(t)
	err := r.RecordSignal(&SignalEvent{
		CycleID: "c1", Scope: "manual:42", OwnerID: 42, Mode: model.ModeManual,
		Symbol: "BTC/USDT", Timeframe: "1h", Label: model.LabelSell, Strength: model.StrengthWeak,
		SellScore: 1.5, Price: 43000, RSI: math.NaN(), Recipients: 1, Delivered: 0, Suppressed: true,
	})
	require.NoError(t, err)

	var (
		label, scope string
		strength     int
		rsi          sql.NullFloat64
		suppressed   bool
	)
	row := r.db.QueryRow(`SELECT label, scope, strength, rsi, suppressed FROM signals WHERE cycle_id = ?`, "c1")
	require.NoError(t, row.Scan(&label, &scope, &strength, &rsi, &suppressed))
	assert.Equal(t, "SELL", label)
	assert.Equal(t, "manual:42", scope)
	assert.Equal(t, 1, strength)
	assert.False(t, rsi.Valid, "NaN is stored as NULL")
	assert.True(t, suppressed)
}

func TestRecordFetchFailure(t *testing.T) {
	r := openTest(t)
	require.NoError(t, r.RecordFetchFailure(&FetchFailure{
		CycleID: "c2", Mode: model.ModeAuto, Symbol: "SUI/USDT", Timeframe: "4h", Kind: "rate limited", Message: "429",
	}))
	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM fetch_failures WHERE kind = 'rate limited'`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	r1, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r1.Close())
	r2, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r2.Close())
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordSignal(&SignalEvent{}))
	assert.NoError(t, r.RecordFetchFailure(&FetchFailure{}))
	assert.NoError(t, r.Close())
}
