package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newBenchCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
