package main

import "github.com/YuminosukeSato/goeli5/pkg/cli"

func main() {
	cli.Execute()
}
