package main

import (
	"github.com/dasm6502/dasmpkg/pkg/cli"
)

func main() {
	cli.Execute()
}
