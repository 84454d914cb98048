// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"encoding/json"
	stdlog "log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Base must work as an io.Writer so net/http internals can be routed into
// the structured stream via the standard library logger.
func TestBaseUsableAsStdlibWriter(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "imgcapt-test"})

	std := stdlog.New(Base(), "", 0)
	std.Print("listener error")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "imgcapt-test", entry["service"])
	assert.Contains(t, entry["message"], "listener error")
}
