package main

import "github.com/santiagomed/blendgen/cli"

func main() {
	cli.Execute()
}
