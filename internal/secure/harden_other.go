//go:build !linux

package secure

import "errors"

func hardenProcess() error {
	return errors.New("process hardening is only implemented on linux")
}
