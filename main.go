// Command vitrine is a terminal client for a remote product catalog.
package main

import "github.com/vitrinecli/vitrine/cmd"

func main() {
	cmd.Execute()
}
