package main

import "github.com/agentic-research/pubsubconf/cmd"

func main() {
	cmd.Execute()
}
