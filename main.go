package main

import "github.com/qpsolvers/open-qpbenchmark/cmd"

func main() {
	cmd.Execute()
}
