package tools

import (
	"bytes"
	"errors"
	"os/exec"

	logs "github.com/danmuck/remotectl/internal/logging"
)

// CommandRunner runs a command to completion and reports its output and exit code.
type CommandRunner interface {
	Run(name string, args ...string) ([]byte, []byte, int32, error)
}

// Launcher starts a command without waiting for it.
type Launcher interface {
	Launch(name string, args ...string) error
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

func (r ExecRunner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := exec.Command(name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), int32(exitErr.ExitCode()), err
	}

	exitCode := int32(1)
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		exitCode = 127
	}
	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

// ExecLauncher starts local processes and reaps them in the background.
type ExecLauncher struct{}

func (ExecLauncher) Launch(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	pid := cmd.Process.Pid
	logs.Infof("tools.ExecLauncher.Launch started name=%q pid=%d", name, pid)
	go func() {
		if err := cmd.Wait(); err != nil {
			logs.Warnf("tools.ExecLauncher.Launch exited name=%q pid=%d err=%v", name, pid, err)
			return
		}
		logs.Debugf("tools.ExecLauncher.Launch exited name=%q pid=%d", name, pid)
	}()
	return nil
}
