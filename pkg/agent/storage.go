package agent

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/rvalieris/hyperdrive/pkg/logger"
)

// blockDevice is one row of `lsblk -b -r -p` output, grounded on
// host.py's lsblk(). Real instance families occasionally omit a
// trailing column (no MOUNTPOINT on an unmounted disk); §9 requires the
// parser tolerate a row shorter than the header rather than error.
type blockDevice struct {
	Name       string
	Type       string
	MountPoint string
}

// listBlockDevices shells out to lsblk and parses its
// space-separated, header-first output into blockDevice rows.
func listBlockDevices() ([]blockDevice, error) {
	out, err := exec.Command("lsblk", "-b", "-r", "-p", "-o", "NAME,TYPE,MOUNTPOINT").Output()
	if err != nil {
		return nil, fmt.Errorf("lsblk: %w", err)
	}
	return parseLsblk(string(out)), nil
}

// parseLsblk parses `lsblk -b -r -p -o NAME,TYPE,MOUNTPOINT` output.
// A row shorter than the header (an empty MOUNTPOINT column can be
// dropped entirely rather than left blank, depending on kernel/util-
// linux version) is tolerated rather than treated as malformed (§9).
func parseLsblk(output string) []blockDevice {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) < 2 {
		return nil
	}
	var devices []blockDevice
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		d := blockDevice{}
		if len(fields) > 0 {
			d.Name = fields[0]
		}
		if len(fields) > 1 {
			d.Type = fields[1]
		}
		if len(fields) > 2 {
			d.MountPoint = fields[2]
		}
		devices = append(devices, d)
	}
	return devices
}

// SetupStorage unmounts every non-root mount, assembles every non-root
// disk into a single scratch volume mounted at /tmp, and moves
// /tmp/ec2-user onto it, grounded on host.py's setup_storage(). With
// no scratch disk present it stops after unmounting: the job runs
// against the root volume.
func SetupStorage() error {
	devices, err := listBlockDevices()
	if err != nil {
		return err
	}

	var root *blockDevice
	for i := range devices {
		if devices[i].MountPoint == "/" {
			root = &devices[i]
			break
		}
	}
	if root == nil {
		return fmt.Errorf("no root block device found")
	}

	var disks []blockDevice
	var toUnmount []blockDevice
	for _, d := range devices {
		// root is the mounted partition; its parent disk's name is a
		// prefix of it and is not a scratch disk either.
		if d.Type == "disk" && !strings.HasPrefix(root.Name, d.Name) {
			disks = append(disks, d)
		}
		if d.MountPoint != "/" && d.MountPoint != "" {
			toUnmount = append(toUnmount, d)
		}
	}

	for _, d := range toUnmount {
		if _, out := ExecuteScript([]string{"umount", d.MountPoint}, 0); out != "" {
			logger.Debugf("umount %s: %s", d.MountPoint, out)
		}
	}

	var device string
	switch len(disks) {
	case 0:
		logger.Infof("no scratch disk found, leaving /tmp/ec2-user on the root volume")
		return nil
	case 1:
		device = disks[0].Name
	default:
		names := make([]string, len(disks))
		for i, d := range disks {
			names[i] = d.Name
		}
		device = "/dev/md0"
		args := append([]string{"mdadm", "--create", "--force", device, "--level=0", "--raid-devices", fmt.Sprintf("%d", len(disks))}, names...)
		if status, out := ExecuteScript(args, 0); status != 0 {
			return fmt.Errorf("mdadm create failed: %s", out)
		}
	}

	if status, out := ExecuteScript([]string{"mkfs.xfs", "-f", device}, 0); status != 0 {
		return fmt.Errorf("mkfs.xfs failed: %s", out)
	}

	// /tmp/ec2-user is the home directory that comes with the machine
	// image (the job tree is fetched into it only after this step);
	// move it aside, mount the scratch volume over /tmp, then move it
	// back onto the new mount (§12).
	if status, out := ExecuteScript([]string{"mv", "/tmp/ec2-user", "/home/"}, 0); status != 0 {
		return fmt.Errorf("staging home aside failed: %s", out)
	}
	if status, out := ExecuteScript([]string{"mount", device, "/tmp"}, 0); status != 0 {
		return fmt.Errorf("mount %s /tmp failed: %s", device, out)
	}
	if status, out := ExecuteScript([]string{"mv", "/home/ec2-user", "/tmp/"}, 0); status != 0 {
		return fmt.Errorf("restoring home onto scratch volume failed: %s", out)
	}
	if status, out := ExecuteScript([]string{"chmod", "0777", "/tmp"}, 0); status != 0 {
		return fmt.Errorf("chmod /tmp failed: %s", out)
	}
	return nil
}
