package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

func main() {
	if err := newRootCmd(afero.NewOsFs()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "formstate:", err)
		os.Exit(1)
	}
}
