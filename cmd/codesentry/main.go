// Package main is the entry point for the codesentry CLI.
//
// All logic lives in the commands package.
package main

import (
	"os"

	"github.com/JNZader/codesentry/cmd/codesentry/commands"
)

func main() {
	os.Exit(commands.Execute())
}
