package main

import "retail-demand-optimizer/internal/cli"

func main() {
	cli.Execute()
}
