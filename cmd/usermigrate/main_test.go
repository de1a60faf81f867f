package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckCommand(t *testing.T) {
	for _, c := range []string{"migrate", "status", "rollback"} {
		assert.NoError(t, checkCommand(c), c)
	}
	assert.EqualError(t, checkCommand("migrat"), `unknown command "migrat"`)
	assert.Error(t, checkCommand(""))
}

func TestRunRejectsUnknownCommandBeforeConnecting(t *testing.T) {
	t.Setenv("DB_HOST", "unreachable.invalid")

	err := run("drop")
	assert.EqualError(t, err, `unknown command "drop"`)
}
