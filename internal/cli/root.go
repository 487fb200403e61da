// Package cli implements the slowcomb command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/slowcomb/pkg/tree"
	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

// app is the state shared by one invocation of the root command.
type app struct {
	flags     rootFlags
	configDir string
	dataDir   string
	cfg       *viper.Viper
	logger    *slog.Logger
}

// NewRootCmd creates the top-level "slowcomb" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	root := &cobra.Command{
		Use:   "slowcomb",
		Short: "Randomly addressable permutations and combinations",
		Long: "slowcomb stores trees of combinatorial units and looks up their terms\n" +
			"by rank, without enumerating the terms before them.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newUnitCmd(a))
	root.AddCommand(newTermCmd(a))
	root.AddCommand(newTermsCmd(a))
	root.AddCommand(newRankCmd(a))
	root.AddCommand(newInfoCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "slowcomb:", err)
		os.Exit(exitCode(err))
	}
}

// exitError carries the exit code a failure should produce.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// sysError marks err as a failure of the environment rather than of the
// caller's input.
func sysError(format string, args ...any) error {
	return &exitError{code: exitSysError, err: fmt.Errorf(format, args...)}
}

// exitCode maps err to a process exit code. Errors not marked as system
// failures are the caller's: bad flags, unknown units, invalid ranks.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// userFacing reports whether err stems from the caller's input: an engine
// error class, a store lookup miss, or a malformed document.
func userFacing(err error) bool {
	for _, target := range []error{
		types.ErrConfiguration,
		types.ErrDomain,
		types.ErrCapability,
		types.ErrRecursion,
		types.ErrNotFound,
		types.ErrInvalidID,
		types.ErrInvalidData,
		types.ErrSourceNotFound,
		types.ErrUnitInUse,
		tree.ErrUnknownFormat,
		tree.ErrBadSignature,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// classify returns err unchanged when it is the caller's fault and marks it
// as a system failure otherwise.
func classify(err error, context string) error {
	if err == nil {
		return nil
	}
	if userFacing(err) {
		return fmt.Errorf("%s: %w", context, err)
	}
	return sysError("%s: %w", context, err)
}
