//go:build windows
// +build windows

package terminal

import "errors"

func Width() (int, error) {
	return 0, errors.New("terminal width is not available on windows")
}
