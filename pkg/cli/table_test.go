package cli

import (
	"bytes"
	"testing"

	"gotest.tools/assert"
)

func TestPrintTableAlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, []string{"jobid", "status"}, [][]string{
		{"abc", "running"},
		{"abcdefg", "success"},
	})
	expected := "jobid    status\n" +
		"abc      running\n" +
		"abcdefg  success\n"
	assert.Equal(t, buf.String(), expected)
}

func TestPrintTableNoRows(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, []string{"jobid"}, nil)
	assert.Equal(t, buf.String(), "jobid\n")
}
