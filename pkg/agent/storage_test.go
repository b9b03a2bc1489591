package agent

import (
	"testing"

	"gotest.tools/assert"
)

func TestParseLsblkFullRows(t *testing.T) {
	out := "NAME TYPE MOUNTPOINT\n" +
		"/dev/xvda disk \n" +
		"/dev/xvda1 part /\n" +
		"/dev/xvdb disk \n"
	devices := parseLsblk(out)
	assert.Equal(t, len(devices), 3)
	assert.Equal(t, devices[1].MountPoint, "/")
	assert.Equal(t, devices[2].Name, "/dev/xvdb")
	assert.Equal(t, devices[2].Type, "disk")
}

func TestParseLsblkTruncatedRow(t *testing.T) {
	out := "NAME TYPE MOUNTPOINT\n/dev/xvdb disk\n"
	devices := parseLsblk(out)
	assert.Equal(t, len(devices), 1)
	assert.Equal(t, devices[0].MountPoint, "")
}

func TestParseLsblkEmpty(t *testing.T) {
	devices := parseLsblk("NAME TYPE MOUNTPOINT\n")
	assert.Equal(t, len(devices), 0)
}
