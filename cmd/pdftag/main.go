// Command pdftag opens a PDF and runs all or part of the PDF/UA-1
// remediation pipeline against it from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/coregx/uatag/cmd/pdftag/internal/commands"
)

func main() {
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
