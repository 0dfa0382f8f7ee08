package joblog

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Log(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	logger.SetOutput(io.Discard)

	l := New(logrus.NewEntry(logger))

	l.Debug("", "starting")
	l.Info("org 1", "refreshing")
	l.Success("network N1", "saved")
	l.Warning("serial Q2", "duplicated asset")
	l.Info("", "")

	assert.False(t, l.Failed())
	assert.Len(t, l.Entries(), 4)

	l.Failure("network N2", "push failed")

	assert.True(t, l.Failed())
	require.Len(t, l.Entries(LevelWarning, LevelFailure), 2)
	assert.Equal(t, "push failed", l.Entries(LevelFailure)[0].Message)

	require.Len(t, hook.AllEntries(), 5)
	success := hook.AllEntries()[2]
	assert.Equal(t, logrus.InfoLevel, success.Level)
	assert.Equal(t, LevelSuccess, success.Data["status"])
	assert.Equal(t, "network N1", success.Data["object"])
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func Test_Report(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	l := New(logrus.NewEntry(logger))

	l.Warning("serial Q2", "duplicated asset")
	l.Info("", "done")

	report := Report(l.Entries())

	assert.Contains(t, report, "[warning] serial Q2: duplicated asset")
	assert.Contains(t, report, "[info] done")
}
