package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/ucam.go/pkg/capture"
	"github.com/robotalks/ucam.go/pkg/framework"
	"github.com/robotalks/ucam.go/pkg/ucam"
)

func init() {
	ucam.SetupFlags()
	capture.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	svc, err := capture.Default().Open(ucam.Default())
	if err != nil {
		glog.Exit(err)
	}
	defer svc.Close()

	err = framework.NewRunner().
		HandleSignals().
		Go(framework.NamedRun("capture", svc)).
		Wait()
	if err != nil {
		glog.Error(err)
	}
}
