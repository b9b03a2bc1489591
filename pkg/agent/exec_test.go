package agent

import (
	"strings"
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestExecuteCommandSuccess(t *testing.T) {
	status, out := ExecuteCommand("echo hi\nexit 0", 0)
	assert.Equal(t, status, 0)
	assert.Equal(t, strings.TrimSpace(out), "hi")
}

func TestExecuteCommandFailure(t *testing.T) {
	status, out := ExecuteCommand("echo error\nexit 1", 0)
	assert.Equal(t, status, 1)
	assert.Equal(t, out, "error")
}

func TestExecuteCommandTimeout(t *testing.T) {
	status, out := ExecuteCommand("sleep 1\necho hi\nexit 0", 300*time.Millisecond)
	assert.Equal(t, status, -1)
	assert.Assert(t, strings.Contains(out, "signal: killed") || strings.Contains(out, "context deadline exceeded"))
}

func TestExecuteScriptWithParams(t *testing.T) {
	status, out := ExecuteScript([]string{"bash", "-c", "echo arg1=$0,arg2=$1", "val1", "val2"}, 0)
	assert.Equal(t, status, 0)
	assert.Equal(t, strings.TrimSpace(out), "arg1=val1,arg2=val2")
}
