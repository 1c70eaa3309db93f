package main

import "github.com/aweris/keeper/cmd/keeper/cmd"

func main() {
	cmd.Execute()
}
