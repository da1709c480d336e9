// The main package for the errbeacon collector executable.
package main

import (
	"github.com/errbeacon/errbeacon/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
