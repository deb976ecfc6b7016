//go:build !windows

package workers

import (
	"os/exec"
	"syscall"
)

// configureProcAttr sets up process group isolation so a killed worker
// takes its children with it.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
