package main

import (
	"github.com/Bitlatte/oven/cmd"
)

func main() {
	cmd.Execute()
}
