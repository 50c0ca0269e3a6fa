package main

import "reelforge/internal/cli"

func main() {
	cli.Main()
}
