package main

import (
	"github.com/ColonelBlimp/govad/cmd"
	"github.com/ColonelBlimp/govad/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
