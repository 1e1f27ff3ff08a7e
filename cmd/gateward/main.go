package main

import "github.com/gateward/gateward/cmd/gateward/cmd"

func main() {
	cmd.Execute()
}
