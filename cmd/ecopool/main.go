package main

import "github.com/ecopool-network/ecopool/internal/cli"

func main() {
	cli.Execute()
}
