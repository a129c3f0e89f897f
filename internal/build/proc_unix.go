//go:build unix

package build

import (
	"os/exec"
	"syscall"
)

// isolate puts the driver in its own process group so cancellation also
// reaches the compiler and worker nodes it spawned.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
