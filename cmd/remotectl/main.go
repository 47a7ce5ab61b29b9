package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/remotectl/internal/config"
	"github.com/danmuck/remotectl/internal/hostpaths"
	logs "github.com/danmuck/remotectl/internal/logging"
	"github.com/danmuck/remotectl/internal/protocol/channel"
	"github.com/danmuck/remotectl/internal/server"
	"github.com/danmuck/remotectl/internal/session"
	"github.com/danmuck/remotectl/internal/tools"
	"github.com/danmuck/remotectl/internal/tui"
	"github.com/spf13/pflag"
)

var version = "dev"

var (
	errUsage       = errors.New("usage")
	errHostFailure = errors.New("host command failed")
)

func main() {
	logs.ConfigureRuntime()
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "remotectl: %v\n", err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	control    string
	response   string
}

func run(args []string, stdout, stderr io.Writer) error {
	var g globalFlags
	fs := pflag.NewFlagSet("remotectl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.StringVar(&g.configPath, "config", "", "path to remotectl.toml (default: ./remotectl.toml when present)")
	fs.StringVar(&g.control, "control", "", "control file override")
	fs.StringVar(&g.response, "response", "", "response file override")
	fs.BoolP("help", "h", false, "show help")
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if help, _ := fs.GetBool("help"); help {
		printUsage(stdout, fs)
		return nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stderr, fs)
		return fmt.Errorf("%w: command required", errUsage)
	}
	name, cmdArgs := rest[0], rest[1:]
	if name == "init" {
		return runInit(cmdArgs, stdout, stderr)
	}

	cfg, err := loadClientConfig(g.configPath)
	if err != nil {
		return err
	}
	a := &app{cfg: cfg, flags: g, stdout: stdout, stderr: stderr}

	switch name {
	case "send":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("%w: send requires a payload", errUsage)
		}
		return a.oneShot(strings.Join(cmdArgs, " "))
	case session.CommandRun, session.CommandStop, session.CommandStatus:
		if len(cmdArgs) != 0 {
			return fmt.Errorf("%w: %s takes no arguments", errUsage, name)
		}
		return a.oneShot(name)
	case "load":
		if len(cmdArgs) != 1 {
			return fmt.Errorf("%w: load requires one profile path", errUsage)
		}
		cmd, err := session.LoadCommand(cmdArgs[0])
		if err != nil {
			return err
		}
		return a.oneShot(cmd)
	case "convert":
		return a.convert(cmdArgs)
	case "register":
		return a.register()
	case "paths":
		return a.printPaths()
	case "serve":
		return a.serve(cmdArgs)
	case "ui":
		return a.ui(cmdArgs)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

type app struct {
	cfg    clientConfig
	flags  globalFlags
	stdout io.Writer
	stderr io.Writer
}

func (a *app) recordPath() string {
	if a.cfg.RegistrationFile != "" {
		return a.cfg.RegistrationFile
	}
	return filepath.Join(filepath.Dir(hostpaths.DefaultControlFile()), config.HostRecordFile)
}

func (a *app) resolvePaths() (hostpaths.Paths, error) {
	overrides := a.cfg.Paths
	if a.flags.control != "" {
		overrides.ControlFile = a.flags.control
	}
	if a.flags.response != "" {
		overrides.ResponseFile = a.flags.response
	}
	chain := hostpaths.Chain{
		Resolvers: hostpaths.PlatformResolvers(a.cfg.HostVersion, a.recordPath()),
		Overrides: overrides,
		Defaults:  hostpaths.Defaults(),
	}
	return chain.Resolve()
}

func (a *app) registerPaths(paths hostpaths.Paths) (bool, error) {
	reg := hostpaths.PlatformRegistrar(a.cfg.HostVersion, a.recordPath())
	changed, err := reg.Register(paths.ControlFile, paths.ResponseFile)
	if err != nil {
		return false, err
	}
	if changed {
		fmt.Fprintln(a.stderr, "Host registration updated. Restart the host for the change to take effect.")
	}
	return changed, nil
}

// connect resolves paths, registers them when configured, and builds a controller over them.
func (a *app) connect() (*session.Controller, hostpaths.Paths, error) {
	paths, err := a.resolvePaths()
	if err != nil {
		return nil, paths, err
	}
	if a.cfg.RegisterOnStart {
		if _, err := a.registerPaths(paths); err != nil {
			logs.Warnf("remotectl.connect registration failed err=%v", err)
		}
	}
	control, err := channel.NewControlChannel(paths.ControlFile)
	if err != nil {
		return nil, paths, err
	}
	response, err := channel.NewResponseChannel(paths.ResponseFile)
	if err != nil {
		return nil, paths, err
	}
	ctrl, err := session.New(a.cfg.Session, control, response)
	if err != nil {
		return nil, paths, err
	}
	return ctrl, paths, nil
}

// oneShot sends cmd, prints the host's answer and fails when the send did not resolve with a response.
func (a *app) oneShot(cmd string) error {
	ctrl, _, err := a.connect()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	results := session.NewResultChannel(1)
	unsubscribe := ctrl.Subscribe(results)
	defer unsubscribe()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	id, err := ctrl.SendCommand(cmd)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "Sent command: %s\n", cmd)

	limit := a.cfg.Session.Watch.WithDefaults().GiveUpAfter() + time.Second
	timer := time.NewTimer(limit)
	defer timer.Stop()
	for {
		select {
		case res := <-results.C():
			if res.ID != id {
				continue
			}
			fmt.Fprintln(a.stdout, res.Text)
			if res.Failed() {
				return fmt.Errorf("%w: %s", errHostFailure, res.Outcome)
			}
			return nil
		case <-ctx.Done():
			ctrl.Cancel()
			return fmt.Errorf("interrupted waiting for %q", cmd)
		case <-timer.C:
			ctrl.Cancel()
			return fmt.Errorf("%w: no result within %s", errHostFailure, limit)
		}
	}
}

func (a *app) convert(args []string) error {
	fs := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	wait := fs.Bool("wait", false, "wait for the conversion to finish")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: convert requires one data file", errUsage)
	}
	file := fs.Arg(0)

	// An unresolved response file does not matter here; the converter only needs the system dir.
	paths, _ := a.resolvePaths()
	conv := tools.NewConverter(paths.SystemDir)
	var err error
	if *wait {
		err = conv.ConvertWait(file)
	} else {
		err = conv.Convert(file)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Converted: %s\n", filepath.Base(file))
	return nil
}

func (a *app) register() error {
	paths, err := a.resolvePaths()
	if err != nil {
		return err
	}
	changed, err := a.registerPaths(paths)
	if err != nil {
		return err
	}
	state := "unchanged"
	if changed {
		state = "updated"
	}
	fmt.Fprintf(a.stdout, "Registration %s: control=%s status=%s\n", state, paths.ControlFile, paths.ResponseFile)
	return nil
}

func (a *app) printPaths() error {
	paths, err := a.resolvePaths()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(paths)
}

func (a *app) serve(args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	addr := fs.String("addr", a.cfg.AdminAddr, "admin listen address")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	ctrl, _, err := a.connect()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	admin, err := server.New(server.Config{
		Addr:        *addr,
		CORSOrigins: a.cfg.CorsOrigins,
		Version:     version,
		Token:       a.cfg.AdminToken,
	}, ctrl)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(a.stderr, "Admin API listening on http://%s\n", admin.Addr())
	return admin.Run(ctx)
}

func (a *app) ui(args []string) error {
	fs := pflag.NewFlagSet("ui", pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	logFile := fs.String("log-file", "", "write logs to this file while the UI owns the terminal")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	logCfg := logs.Resolve(logs.ProfileRuntime)
	logCfg.NoColor = true
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logCfg.Out = f
	} else {
		logCfg.Bypass = true
	}
	logs.Apply(logCfg)

	ctrl, paths, err := a.connect()
	if err != nil {
		return err
	}
	defer ctrl.Close()

	return tui.Run(tui.Config{
		SystemDir:  paths.SystemDir,
		ProfileDir: paths.ProfileDir,
		DataDir:    paths.DataDir,
	}, ctrl, tools.NewConverter(paths.SystemDir))
}

func runInit(args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("init", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	kind := fs.String("kind", "client", "template kind: client|host")
	output := fs.String("output", "", "output path (default: remotectl.toml or host.toml)")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	target := *output
	if target == "" {
		switch *kind {
		case "client":
			target = defaultConfigFile
		case "host":
			target = config.HostRecordFile
		default:
			return fmt.Errorf("%w: unknown kind %q", errUsage, *kind)
		}
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s config template to %s\n", *kind, target)
	return nil
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprint(w, `remotectl drives a host application through its control and status files.

Usage:
  remotectl [global flags] <command> [args]

Commands:
  send <payload...>    write a raw command and print the host response
  run | stop | status  send the named command and print the host response
  load <profile>       ask the host to load a profile
  convert [--wait] <file>
                       export a data file as CSV through the host executable
  register             record the control and status files with the host
  paths                print the resolved host paths as JSON
  serve [--addr]       run the admin HTTP API
  ui [--log-file]      open the terminal client
  init [--kind] [--output] [--force]
                       write a config template

Global flags:
`)
	fmt.Fprint(w, fs.FlagUsages())
}
