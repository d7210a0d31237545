package main

import "github.com/audiolibrelab/barscope/cmd"

func main() {
	cmd.Execute()
}
