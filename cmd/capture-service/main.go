package main

import (
	"os"

	"github.com/vcalderon2009/note-taker/captureservice"
)

func main() {
	if err := captureservice.Run(); err != nil {
		os.Exit(1)
	}
}
