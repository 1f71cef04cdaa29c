package audit

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditor_LogAndGet(t *testing.T) {
	a, err := NewAuditor(filepath.Join(t.TempDir(), "audit", "audit.db"), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	a.Log("contract_analyze", json.RawMessage(`{"text":"x"}`), []byte(`{"overallScore":3}`), nil, 12*time.Millisecond)
	a.Log("litigation_predict", json.RawMessage(`{}`), nil, errors.New("text must not be empty"), time.Millisecond)

	entries, err := a.GetLogs(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "litigation_predict", entries[0].Tool)
	assert.Equal(t, "text must not be empty", entries[0].Error)
	assert.Equal(t, "contract_analyze", entries[1].Tool)
	assert.Equal(t, `{"text":"x"}`, entries[1].Input)
	assert.EqualValues(t, 12, entries[1].Duration)

	entries, err = a.GetLogs(1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAuditor_NilIsNoop(t *testing.T) {
	var a *Auditor
	a.Log("x", nil, nil, nil, 0)
	entries, err := a.GetLogs(5)
	assert.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, a.Close())
}

func TestAuditor_WriteFailure(t *testing.T) {
	a, err := NewAuditor(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, a.db.Close())
	assert.NotPanics(t, func() {
		a.Log("contract_analyze", nil, nil, nil, time.Millisecond)
	})

	core, logs := observer.New(zap.WarnLevel)
	a, err = NewAuditor(":memory:", zap.New(core))
	require.NoError(t, err)
	require.NoError(t, a.db.Close())
	a.Log("contract_analyze", nil, nil, nil, time.Millisecond)
	assert.Equal(t, 1, logs.FilterMessage("failed to write audit log").Len())
}
