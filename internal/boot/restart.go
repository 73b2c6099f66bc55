package boot

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/muurk/wifiportal/internal/logging"
)

// Runner performs one boot.
type Runner interface {
	Run(ctx context.Context) error
}

// Restarter applies a restart requested by a boot.
type Restarter interface {
	Restart(ctx context.Context) error
}

// InProcess restarts by booting again in the same process. Everything a
// boot uses is rebuilt from the store, so nothing leaks between boots.
type InProcess struct{}

// Restart returns immediately; Supervise starts the next boot.
func (InProcess) Restart(ctx context.Context) error {
	logging.Info("Restarting in process")
	return nil
}

// Exec restarts by replacing the process image with a fresh copy of the
// running executable. On success it does not return.
type Exec struct {
	// Args defaults to os.Args.
	Args []string
}

// Restart execs the current executable.
func (e Exec) Restart(ctx context.Context) error {
	path, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	args := e.Args
	if len(args) == 0 {
		args = os.Args
	}

	logging.Info("Restarting", zap.String("exec", path))
	logging.Sync()

	return execSelf(path, args, os.Environ())
}

// Supervise boots repeatedly until a boot ends for a reason other than a
// restart. Cancelling ctx ends the current boot and returns nil.
func Supervise(ctx context.Context, runner Runner, restarter Restarter) error {
	for boots := 1; ; boots++ {
		err := runner.Run(ctx)
		if !errors.Is(err, ErrRestart) {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}

		logging.Debug("Boot finished", zap.Int("boot", boots))
		if err := restarter.Restart(ctx); err != nil {
			return fmt.Errorf("restart: %w", err)
		}
	}
}
