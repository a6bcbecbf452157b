package main

import "github.com/kozaktomas/portfolio/cmd"

func main() {
	cmd.Execute()
}
