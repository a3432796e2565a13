package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOperationString(t *testing.T) {
	assert.Equal(t, "created", OpCreate.String())
	assert.Equal(t, "modified", OpModify.String())
	assert.Equal(t, "deleted", OpDelete.String())
	assert.Equal(t, "renamed", OpRename.String())
	assert.Equal(t, "unknown", Operation(99).String())
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{Root: "/tmp"}.WithDefaults()
	assert.Equal(t, 2*time.Second, opts.PollInterval)
	assert.Equal(t, 256, opts.EventBufferSize)

	custom := Options{Root: "/tmp", PollInterval: time.Second, EventBufferSize: 8}.WithDefaults()
	assert.Equal(t, time.Second, custom.PollInterval)
	assert.Equal(t, 8, custom.EventBufferSize)
}
