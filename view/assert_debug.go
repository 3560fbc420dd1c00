//go:build dvdebug

package view

import "fmt"

func debugAssert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("view: "+format, args...))
	}
}
