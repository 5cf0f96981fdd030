package main

import "github.com/Alturino/flowerbelle/cmd"

func main() {
	cmd.Start()
}
