package main

import "github.com/daycare-qa/server/internal/cli"

func main() {
	cli.Execute()
}
