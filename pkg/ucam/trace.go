package ucam

import (
	"fmt"

	"github.com/golang/glog"
)

// Tracer receives human-readable protocol trace lines.
type Tracer interface {
	Trace(line string)
}

// TraceFunc is func form of Tracer.
type TraceFunc func(string)

// Trace implements Tracer.
func (f TraceFunc) Trace(line string) {
	f(line)
}

// GlogTracer writes trace lines to glog at the verbosity level.
type GlogTracer glog.Level

// Trace implements Tracer.
func (l GlogTracer) Trace(line string) {
	glog.V(glog.Level(l)).Info(line)
}

func (c *Camera) tracef(format string, args ...interface{}) {
	if t := c.Tracer; t != nil {
		t.Trace(fmt.Sprintf(format, args...))
	}
}

func hexBytes(p []byte) string {
	if len(p) == 0 {
		return "-"
	}
	return fmt.Sprintf("% X", p)
}
