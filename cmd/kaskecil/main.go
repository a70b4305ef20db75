// Command kaskecil is a terminal client for the Kas Kecil API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"kaskecil/internal/logger"
	"kaskecil/pkg/client"
)

const defaultBaseURL = "http://localhost:8080"

type command struct {
	name    string
	summary string
	usage   string
	flags   func(fs *pflag.FlagSet)
	run     func(ctx context.Context, a *app, fs *pflag.FlagSet) error
}

// app is what every command runs against.
type app struct {
	client *client.Client
	out    io.Writer
	errOut io.Writer
	env    func(string) string
	now    func() time.Time
}

func main() {
	logger.Init("development", envOr(os.Getenv, "KASKECIL_LOG_LEVEL", "warn"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, env func(string) string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stdout)
		return 0
	}

	cmd := findCommand(args[0])
	if cmd == nil {
		fmt.Fprintf(stderr, "perintah tidak dikenal %q\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	fs := pflag.NewFlagSet(cmd.name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printCommandHelp(stdout, cmd, fs)
			return 0
		}
		fmt.Fprintf(stderr, "%v\n\n", err)
		printCommandHelp(stderr, cmd, fs)
		return 2
	}

	session, err := client.NewSession(client.FileStore{Path: sessionPath(env)})
	if err != nil {
		fmt.Fprintf(stderr, "Sesi tidak dapat dibaca: %v\n", err)
		return 1
	}

	c := client.New(envOr(env, "KASKECIL_URL", defaultBaseURL), nil, session)
	c.OnUnauthorized = func() {
		if session.SignedIn() {
			if err := <-session.Clear(); err != nil {
				logger.Get().Warnw("Failed to clear session", "error", err)
			}
			fmt.Fprintln(stderr, "Sesi berakhir, silakan login kembali.")
		}
	}

	a := &app{client: c, out: stdout, errOut: stderr, env: env, now: time.Now}
	if err := cmd.run(ctx, a, fs); err != nil {
		logger.Get().Debugw("Command failed", "command", cmd.name, "error", err)
		fmt.Fprintln(stderr, client.UserMessage(err, fallbackMessage(err)))
		return 1
	}
	return 0
}

// fallbackMessage covers errors that carry no server or validation message.
func fallbackMessage(err error) string {
	var u usageError
	if errors.As(err, &u) {
		return string(u)
	}
	return "Terjadi kesalahan, silakan coba lagi."
}

// usageError is a message meant for the user as is.
type usageError string

func (u usageError) Error() string { return string(u) }

func sessionPath(env func(string) string) string {
	if p := env("KASKECIL_SESSION"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "kaskecil", "session.yaml")
}

func envOr(env func(string) string, key, fallback string) string {
	if v := env(key); v != "" {
		return v
	}
	return fallback
}

func findCommand(name string) *command {
	for i := range commands {
		if commands[i].name == name {
			return &commands[i]
		}
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Penggunaan: kaskecil <perintah> [flag]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Perintah:")
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "  %s\t%s\n", c.name, c.summary)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server diambil dari KASKECIL_URL, sesi disimpan di KASKECIL_SESSION.")
}

func printCommandHelp(w io.Writer, c *command, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "%s\n\nPenggunaan:\n  kaskecil %s\n", c.summary, strings.TrimSpace(c.name+" "+c.usage))
	if fs.HasFlags() {
		fmt.Fprintf(w, "\nFlag:\n%s", fs.FlagUsages())
	}
}
