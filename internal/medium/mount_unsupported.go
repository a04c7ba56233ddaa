//go:build !linux

package medium

import "errors"

var errUnsupported = errors.New("mounting is only supported on linux")

// SystemMounter is unavailable off linux; use an explicit table path instead.
type SystemMounter struct{}

func (SystemMounter) Mount(source, target, fstype string) error {
	return errUnsupported
}

func (SystemMounter) Unmount(target string) error {
	return errUnsupported
}
