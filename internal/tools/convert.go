package tools

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	logs "github.com/danmuck/remotectl/internal/logging"
)

const (
	HostExecutable = "vibrationview.exe"
	csvFlag        = "/csv"
)

var (
	ErrSystemDirUnset     = errors.New("tools: system file path not set")
	ErrExecutableNotFound = errors.New("tools: host executable not found")
	ErrDataFileNotFound   = errors.New("tools: data file not found")
	ErrConvertFailed      = errors.New("tools: conversion failed")
)

// Converter asks the host executable to export a data file as CSV.
type Converter struct {
	SystemDir string
	Launcher  Launcher
	Runner    CommandRunner
}

func NewConverter(systemDir string) *Converter {
	return &Converter{
		SystemDir: systemDir,
		Launcher:  ExecLauncher{},
		Runner:    ExecRunner{},
	}
}

// Executable returns the host executable path after checking it exists.
func (c *Converter) Executable() (string, error) {
	dir := strings.TrimSpace(c.SystemDir)
	if dir == "" {
		return "", ErrSystemDirUnset
	}
	exe := filepath.Join(dir, HostExecutable)
	info, err := os.Stat(exe)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, exe)
	}
	return exe, nil
}

func (c *Converter) prepare(dataFile string) (string, error) {
	exe, err := c.Executable()
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dataFile)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrDataFileNotFound, dataFile)
	}
	return exe, nil
}

// Convert launches the conversion and returns without waiting for it.
func (c *Converter) Convert(dataFile string) error {
	exe, err := c.prepare(dataFile)
	if err != nil {
		return err
	}
	launcher := c.Launcher
	if launcher == nil {
		launcher = ExecLauncher{}
	}
	if err := launcher.Launch(exe, csvFlag, dataFile); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConvertFailed, filepath.Base(dataFile), err)
	}
	logs.Infof("tools.Converter.Convert launched file=%q", dataFile)
	return nil
}

// ConvertWait runs the conversion to completion and fails on a non-zero exit.
func (c *Converter) ConvertWait(dataFile string) error {
	exe, err := c.prepare(dataFile)
	if err != nil {
		return err
	}
	runner := c.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	_, stderr, code, err := runner.Run(exe, csvFlag, dataFile)
	if err != nil {
		return fmt.Errorf(
			"%w: %s: exit=%d stderr=%q: %w",
			ErrConvertFailed, filepath.Base(dataFile), code, strings.TrimSpace(string(stderr)), err,
		)
	}
	logs.Infof("tools.Converter.ConvertWait done file=%q", dataFile)
	return nil
}
