package kreuzberg

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// The library stays silent unless a binding installs a logger.
var pkgLogger atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	pkgLogger.Store(&nop)
}

// SetLogger installs the logger used by registries, the pipeline, and
// the batch scheduler. Safe to call concurrently with extraction.
func SetLogger(l zerolog.Logger) {
	pkgLogger.Store(&l)
}

func logger() *zerolog.Logger {
	return pkgLogger.Load()
}
