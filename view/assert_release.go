//go:build !dvdebug

package view

import (
	"fmt"

	"github.com/joshuapare/dualview/internal/logger"
)

func debugAssert(cond bool, format string, args ...any) {
	if !cond {
		logger.Debug("view assertion failed", "detail", fmt.Sprintf(format, args...))
	}
}
