package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestHelpersConcatenateArguments(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Info("balance query for ", "0xabc", " failed: ", 3)
	Warn("w")
	Error("e")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "balance query for 0xabc failed: 3", entries[0].ContextMap()["Info"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "e", entries[2].ContextMap()["Err"])
}

func TestNopBeforeInit(t *testing.T) {
	SetLogger(nil)
	assert.NotPanics(t, func() {
		Debug("x")
		Info("x")
		HandleErr(assert.AnError)
	})
}
