package main

import "videothingy/reel-pipeline/internal/cli"

func main() {
	cli.Main()
}
