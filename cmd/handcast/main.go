package main

import (
	"runtime"

	"github.com/ayusman/handcast/internal/cli"
)

// The preview window and the tray both need the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	cli.Execute()
}
