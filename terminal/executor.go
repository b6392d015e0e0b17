// Copyright 2026 The PiCord Authors
// SPDX-License-Identifier: Apache-2.0

package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/sys/unix"
)

// Wildcard in the allow-list disables it.
const Wildcard = "*"

// DefaultTimeout bounds a command when ExecutorConfig.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// waitDelay is how long Wait waits for output pipes after the process
// group has been killed.
const waitDelay = 2 * time.Second

// Outcome classifies a Result.
type Outcome int

const (
	// OutcomeOK is a zero exit status, a successful cd, or an empty
	// command line.
	OutcomeOK Outcome = iota

	// OutcomeExit is the "exit" command. Nothing was spawned.
	OutcomeExit

	// OutcomePolicyDenied is a command whose first token is not in
	// the allow-list. Nothing was spawned.
	OutcomePolicyDenied

	// OutcomeTimeout is a command killed at the timeout.
	OutcomeTimeout

	// OutcomeFailure is a nonzero exit status or a failed cd.
	OutcomeFailure

	// OutcomeError is any other execution error, including a failure
	// to spawn the shell.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeExit:
		return "exit"
	case OutcomePolicyDenied:
		return "policy-denied"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeFailure:
		return "failure"
	case OutcomeError:
		return "error"
	default:
		return "outcome(" + strconv.Itoa(int(o)) + ")"
	}
}

// Result is the outcome of one command line.
type Result struct {
	// Output is the text rendered below the echoed command. Empty
	// means no output line.
	Output string

	Outcome Outcome

	// ExitCode is the shell's exit status for OutcomeOK and
	// OutcomeFailure from a spawned command, -1 otherwise.
	ExitCode int

	// Directory is the new working directory after a successful cd.
	// The caller applies it to the session.
	Directory string
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// Shell runs each command line as "<Shell> -c <line>". Resolved via
	// PATH. Default: "sh".
	Shell string

	// Timeout is the wall-clock limit for one command. Default:
	// DefaultTimeout.
	Timeout time.Duration

	// AllowedCommands lists the permitted first tokens. Empty or
	// containing Wildcard means unrestricted.
	AllowedCommands []string

	// MaxOutputBytes bounds captured output; the tail is kept. Zero
	// means unbounded.
	MaxOutputBytes int

	// Environment is the environment of spawned commands. Nil
	// inherits the relay's.
	Environment []string

	// Logger is used for structured logging. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// Executor runs command lines for sessions. Safe for concurrent use;
// each call blocks only its caller.
type Executor struct {
	shell          string
	timeout        time.Duration
	allowed        map[string]struct{}
	unrestricted   bool
	maxOutputBytes int
	environment    []string
	logger         *slog.Logger
}

// NewExecutor creates an Executor from config.
func NewExecutor(config ExecutorConfig) *Executor {
	executor := &Executor{
		shell:          config.Shell,
		timeout:        config.Timeout,
		maxOutputBytes: config.MaxOutputBytes,
		environment:    config.Environment,
		logger:         config.Logger,
		unrestricted:   len(config.AllowedCommands) == 0 || slices.Contains(config.AllowedCommands, Wildcard),
	}
	if executor.shell == "" {
		executor.shell = "sh"
	}
	if executor.timeout <= 0 {
		executor.timeout = DefaultTimeout
	}
	if executor.logger == nil {
		executor.logger = slog.Default()
	}
	if !executor.unrestricted {
		executor.allowed = make(map[string]struct{}, len(config.AllowedCommands))
		for _, command := range config.AllowedCommands {
			executor.allowed[command] = struct{}{}
		}
	}
	return executor
}

// Execute runs commandLine for session. The allow-list is checked
// first, then "exit", then "cd"; anything else is spawned in
// session.CWD. Execute never returns an error: every failure is
// reported as Result.Output with the matching Outcome. The session is
// read, never written; a cd reports the new directory in
// Result.Directory.
func (e *Executor) Execute(ctx context.Context, commandLine string, session *Session) Result {
	trimmed := strings.TrimSpace(commandLine)
	if trimmed == "" {
		return Result{ExitCode: -1}
	}

	if !e.unrestricted {
		token := strings.Fields(trimmed)[0]
		if _, ok := e.allowed[token]; !ok {
			return Result{
				Output:   fmt.Sprintf("❌ Command `%s` is not allowed!", token),
				Outcome:  OutcomePolicyDenied,
				ExitCode: -1,
			}
		}
	}

	if isExitCommand(trimmed) {
		return Result{Outcome: OutcomeExit, ExitCode: -1}
	}

	if target, ok := parseChangeDirectory(trimmed); ok {
		return changeDirectory(target, session)
	}

	return e.spawn(ctx, commandLine, session.CWD)
}

// spawn runs commandLine in its own process group so the timeout can
// kill the shell together with everything it started.
func (e *Executor) spawn(ctx context.Context, commandLine, directory string) Result {
	runContext, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(runContext, e.shell, "-c", commandLine)
	cmd.Dir = directory
	cmd.Env = e.environment
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	stdout := newTailBuffer(e.maxOutputBytes)
	stderr := newTailBuffer(e.maxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	started := time.Now()
	err := cmd.Run()
	elapsed := time.Since(started)

	if errors.Is(runContext.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		// Cancel only fires while the shell is still running. A shell
		// that already exited can leave background children holding
		// the output pipes; the group outlives its leader.
		killProcessGroup(cmd.Process, e.logger)
		e.logger.Info("command timed out",
			"command", commandLine,
			"timeout", e.timeout,
		)
		return Result{
			Output:   fmt.Sprintf("❌ Command timed out after %s seconds", formatSeconds(e.timeout)),
			Outcome:  OutcomeTimeout,
			ExitCode: -1,
		}
	}

	if err == nil {
		return Result{
			Output:   cleanOutput(stdout),
			Outcome:  OutcomeOK,
			ExitCode: 0,
		}
	}

	var exitError *exec.ExitError
	if errors.As(err, &exitError) && exitError.ExitCode() >= 0 {
		message := cleanOutput(stderr)
		if message == "" {
			message = fmt.Sprintf("Command failed with exit code %d", exitError.ExitCode())
		} else {
			message = "❌ " + message
		}
		e.logger.Debug("command failed",
			"command", commandLine,
			"exit_code", exitError.ExitCode(),
			"elapsed", elapsed,
		)
		return Result{
			Output:   message,
			Outcome:  OutcomeFailure,
			ExitCode: exitError.ExitCode(),
		}
	}

	e.logger.Warn("command execution error",
		"command", commandLine,
		"error", err,
	)
	return Result{
		Output:   fmt.Sprintf("❌ Error executing command: %v", err),
		Outcome:  OutcomeError,
		ExitCode: -1,
	}
}

// killProcessGroup kills every process left in the group led by
// process. A group that is already gone is not an error.
func killProcessGroup(process *os.Process, logger *slog.Logger) {
	if process == nil {
		return
	}
	err := unix.Kill(-process.Pid, unix.SIGKILL)
	if err != nil && !errors.Is(err, unix.ESRCH) {
		logger.Warn("killing process group failed",
			"pgid", process.Pid,
			"error", err,
		)
	}
}

// isExitCommand reports whether line is "exit" in any case.
func isExitCommand(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), "exit")
}

// parseChangeDirectory recognizes "cd" alone or followed by
// whitespace, and returns the argument with one layer of matching
// quotes removed.
func parseChangeDirectory(line string) (string, bool) {
	if line == "cd" {
		return "", true
	}
	if !strings.HasPrefix(line, "cd") {
		return "", false
	}
	next, _ := utf8.DecodeRuneInString(line[2:])
	if !unicode.IsSpace(next) {
		return "", false
	}
	target := strings.TrimSpace(line[2:])
	if len(target) >= 2 {
		first, last := target[0], target[len(target)-1]
		if (first == '"' || first == '\'') && first == last {
			target = target[1 : len(target)-1]
		}
	}
	return target, true
}

// changeDirectory resolves target against the session and reports the
// new directory when it names one. Anything else, including a path
// that exists but is not a directory, reads as missing.
func changeDirectory(target string, session *Session) Result {
	resolved := resolvePath(target, session.CWD, session.Home)

	if info, err := os.Stat(resolved); err == nil && info.IsDir() {
		return Result{Outcome: OutcomeOK, ExitCode: -1, Directory: resolved}
	}
	return Result{
		Output:   fmt.Sprintf("bash: cd: %s: No such file or directory", resolved),
		Outcome:  OutcomeFailure,
		ExitCode: -1,
	}
}

// resolvePath expands ~ and ~/x against home and ~name against that
// user's home, joins relative paths onto cwd and cleans the result. A
// bare cd goes home.
func resolvePath(target, cwd, home string) string {
	if home == "" {
		home = "/"
	}
	switch {
	case target == "" || target == "~":
		return filepath.Clean(home)
	case strings.HasPrefix(target, "~/"):
		return filepath.Join(home, target[2:])
	case strings.HasPrefix(target, "~"):
		if expanded, ok := expandUserHome(target); ok {
			return expanded
		}
		return filepath.Join(cwd, target)
	case filepath.IsAbs(target):
		return filepath.Clean(target)
	default:
		return filepath.Join(cwd, target)
	}
}

// expandUserHome expands ~name and ~name/rest to that user's home
// directory. Unknown users are left for the caller to treat literally.
func expandUserHome(target string) (string, bool) {
	name, rest, _ := strings.Cut(target[1:], "/")
	account, err := user.Lookup(name)
	if err != nil || account.HomeDir == "" {
		return "", false
	}
	return filepath.Join(account.HomeDir, rest), true
}

// cleanOutput strips terminal escape sequences and surrounding
// whitespace, and notes how much was dropped by the capture bound.
func cleanOutput(buffer *tailBuffer) string {
	text, dropped := buffer.contents()
	text = strings.TrimSpace(ansi.Strip(text))
	if dropped > 0 {
		return fmt.Sprintf("... (%d bytes truncated)\n%s", dropped, text)
	}
	return text
}

// formatSeconds renders a timeout the way it was configured: "30",
// or "0.5" for sub-second timeouts in tests.
func formatSeconds(timeout time.Duration) string {
	return strconv.FormatFloat(timeout.Seconds(), 'f', -1, 64)
}
