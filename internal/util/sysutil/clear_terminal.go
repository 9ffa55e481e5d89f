package sysutil

import (
	"io"
	"os/exec"
	"runtime"
	"strings"
)

// ClearTerminal clears the terminal screen in supported operating systems,
// writing the control sequence to w.
func ClearTerminal(w io.Writer) {
	goos := runtime.GOOS

	if strings.HasPrefix(goos, "windows") {
		cmd := exec.Command("cmd", "/c", "cls")
		cmd.Stdout = w
		_ = cmd.Run()
		return
	}

	if strings.HasPrefix(goos, "linux") || strings.HasPrefix(goos, "darwin") {
		cmd := exec.Command("clear")
		cmd.Stdout = w
		_ = cmd.Run()
	}
}
