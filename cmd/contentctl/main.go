// Command contentctl reads and commits portfolio content from the shell.
package main

import "github.com/sakif/portfolio/internal/cli"

func main() {
	cli.Execute()
}
