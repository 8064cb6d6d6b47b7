package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Environment passed to extensions, so that they work on the same portfolio.
const (
	EnvConfig  = "CFL_CONFIG"
	EnvDBDSN   = "CFL_DB_DSN"
	EnvVerbose = "CFL_VERBOSE"
)

// RunExtension attempts to find and execute an external cfl-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "cfl-" + subcommand
	lp, err := exec.LookPath(name)
	if err != nil {
		log.Debug().Err(err).Str("extension", name).Msg("no such extension in PATH")
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr

	cmd.Env = append(os.Environ(),
		EnvConfig+"="+*configFile,
		EnvVerbose+"="+strconv.FormatBool(*Verbose),
	)
	if *dbDSN != "" {
		cmd.Env = append(cmd.Env, EnvDBDSN+"="+*dbDSN)
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return true, exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
