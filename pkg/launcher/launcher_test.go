package launcher

import (
	"bytes"
	"encoding/json"
	"testing"

	"gotest.tools/assert"
)

func TestUserdataTemplateEmbedsPayloadVerbatim(t *testing.T) {
	payload := agentConfig{
		JobID:     "abc",
		SQSURL:    "https://sqs.example/q",
		Prefix:    "my-bucket/prefix",
		LogGroup:  "hd-logs",
		ExtraLogs: []string{"logs/extra.log"},
	}
	data, err := json.Marshal(payload)
	assert.NilError(t, err)

	var buf bytes.Buffer
	err = userdataTmpl.Execute(&buf, struct{ JSON string }{string(data)})
	assert.NilError(t, err)

	assert.Assert(t, bytes.Contains(buf.Bytes(), []byte(`"jobid":"abc"`)))
	assert.Assert(t, bytes.Contains(buf.Bytes(), []byte("hyperdrive-agent --config")))
}
