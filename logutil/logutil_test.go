package logutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRejectsBadLevel(t *testing.T) {
	_, err := Setup("chatty", false)
	require.Error(t, err)
}

func TestSetupConsoleOnly(t *testing.T) {
	logger, err := Setup("debug", false)
	require.NoError(t, err)
	logger.Debug().Msg("setup ok")
}

func TestRedactKey(t *testing.T) {
	assert.Equal(t, "********", RedactKey("short"))
	assert.Equal(t, "sk-a...wxyz", RedactKey("sk-abcdefghijklmnopqrstuvwxyz"))
}
