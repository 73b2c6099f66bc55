//go:build !unix

package boot

import (
	"fmt"
	"runtime"
)

func execSelf(path string, args, env []string) error {
	return fmt.Errorf("exec restart is not supported on %s, use the inprocess restart", runtime.GOOS)
}
