//go:build linux

package dispatch

import (
	"errors"

	"golang.org/x/sys/unix"
)

// poll peeks at the child with waitid(WNOWAIT) so the zombie is left for
// exec.Cmd.Wait to collect together with its output pipes.
func (p *osProcess) poll() (bool, error) {
	var info unix.Siginfo
	err := unix.Waitid(unix.P_PID, p.Pid(), &info, unix.WEXITED|unix.WNOHANG|unix.WNOWAIT, nil)
	if errors.Is(err, unix.EINTR) {
		return false, nil
	}
	if errors.Is(err, unix.ECHILD) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return info.Signo == int32(unix.SIGCHLD), nil
}
