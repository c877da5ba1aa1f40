// Command bingo splits bingo card images into squares and composes new
// cards from them.
//
// Usage: bingo <command> [flags]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
