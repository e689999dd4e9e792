package main

import "github.com/slosh-shell/slosh/cmd"

func main() {
	cmd.Execute()
}
