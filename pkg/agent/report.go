package agent

import (
	"github.com/rvalieris/hyperdrive/pkg/logger"
)

// Poweroff terminates the instance from within, the terminal step of
// host.py's __main__ block. It never returns on success; callers
// only see a log line if the shell-out itself fails (no sudo on the
// AMI, permissions misconfigured, etc).
func Poweroff() {
	status, out := ExecuteScript([]string{"sudo", "poweroff"}, 0)
	if status != 0 {
		logger.Errorf("poweroff failed: %s", out)
	}
}
