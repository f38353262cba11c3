//go:build !linux

package main

import "errors"

func dropCaches() error {
	return errors.New("dropping caches is only supported on linux")
}
