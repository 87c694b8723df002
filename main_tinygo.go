//go:build tinygo && baremetal

package main

import (
	"tickos/app"
	"tickos/hal"
)

func main() {
	app.Run(hal.New())
}
