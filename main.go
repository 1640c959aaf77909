// The main package for the idiomcrawler executable.
package main

import (
	"github.com/JakeFAU/idiom-dictionary-crawler/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
