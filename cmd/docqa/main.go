// Package main provides the entry point for the docqa CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/docqa/cmd/docqa/cmd"
	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, qaerrors.FormatForCLI(err))
		os.Exit(1)
	}
}
