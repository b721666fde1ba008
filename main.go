// Package main is the entry point of vidrelay.
package main

import (
	"github.com/samber/lo"
	"github.com/vidrelay/vidrelay/cmd"
	"github.com/vidrelay/vidrelay/config"
	"github.com/vidrelay/vidrelay/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
