// Package env provides information about the host a camera is attached to.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID salts the machine ID so the published camera ID doesn't expose
// the raw machine ID.
const AppID = "ucam"

// MachineID retrieves the ID identifying the machine, falling back to
// the hostname when the platform has none.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err == nil {
		return id[:16]
	}
	glog.Warningf("machine ID unavailable: %v", err)
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "ucam"
}
