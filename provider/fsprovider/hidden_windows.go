//go:build windows

package fsprovider

import "golang.org/x/sys/windows"

// hiddenAttr reports the FILE_ATTRIBUTE_HIDDEN bit of path.
func hiddenAttr(path string) bool {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return false
	}
	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0
}
