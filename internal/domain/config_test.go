package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.NotEmpty(t, config.Store.DatabasePath)
	assert.Equal(t, "dlqueue", config.Manager.Owner)
	assert.False(t, config.Manager.AccessAllDownloads)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Empty(t, config.Logging.LogsDir)
}
