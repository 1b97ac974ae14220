package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/classboard/core"
)

func TestRollbarLogger(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	logger := NewRollbarLogger(zap.New(obs), core.NewTestConfig())
	logger.Enable(false)

	logger.Error("backend unreachable",
		errors.New("dial tcp: connection refused"),
		map[string]interface{}{"endpoint": "MyTasks"},
		core.Person{ID: "7", Username: "ania"},
		core.Person{ID: "8", Username: "ignored"},
	)
	logger.Info("started")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "backend unreachable", entries[0].Message)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "dial tcp: connection refused", ctx["error"])
	assert.Equal(t, "MyTasks", ctx["endpoint"])
	assert.Equal(t, "ania", ctx["user"])
	assert.Equal(t, zap.InfoLevel, entries[1].Level)
}
