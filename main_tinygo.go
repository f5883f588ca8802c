//go:build tinygo

package main

import (
	"fastclock/app"
	"fastclock/hal"
)

func main() {
	app.Run(hal.New())
}
