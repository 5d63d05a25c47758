package main

import "github.com/dstrelnikov/bookreel/internal/cli"

func main() {
	cli.Main()
}
