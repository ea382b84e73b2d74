package main

import (
	"github.com/robotalks/ucam.go/pkg/cli/sh"
	"github.com/robotalks/ucam.go/pkg/ucam"
)

//go-build: CGO_ENABLED=0

func init() {
	ucam.SetupFlags()
}

func main() {
	sh.Main()
}
