package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { Init("development", "info") })

	Init("production", "debug")
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())
	_, ok := Log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)

	Init("development", "not-a-level")
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
	_, ok = Log.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}
