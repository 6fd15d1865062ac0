package cli

import (
	"context"
	stderrors "errors"
	"os"

	"github.com/matzehuels/spatialgen/pkg/errors"
)

// Execute runs the spatialgen CLI with os.Args and returns the error of
// the failed command, if any.
//
//	func main() {
//	    if err := cli.Execute(ctx); err != nil {
//	        os.Exit(cli.ExitCode(err))
//	    }
//	}
func Execute(ctx context.Context) error {
	c := New(os.Stderr, LogInfo)
	defer c.Close()
	return c.RootCommand().ExecuteContext(ctx)
}

// ExitCode maps an error to the process exit status: 0 for nil, 130 when
// the run was interrupted and 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, context.Canceled):
		return 130 // Standard shell convention for SIGINT
	}
	return 1
}

// ErrorMessage returns the text printed for a failed command.
func ErrorMessage(err error) string {
	if code := errors.GetCode(err); code != "" {
		return string(code) + ": " + errors.UserMessage(err)
	}
	return err.Error()
}
