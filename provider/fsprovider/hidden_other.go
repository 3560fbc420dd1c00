//go:build !windows

package fsprovider

// hiddenAttr is false outside Windows; dotted names are the only convention.
func hiddenAttr(string) bool { return false }
