package ucam

import (
	"flag"
	"fmt"
	"time"

	"github.com/robotalks/ucam.go/pkg/transport"
	"github.com/robotalks/ucam.go/pkg/ucam/protocol"
)

// Config defines the protocol timing and sizes.
type Config struct {
	// SyncAttempts is the number of SYNC commands sent before giving up.
	SyncAttempts int
	// SyncSettle is the pause before each SYNC.
	SyncSettle time.Duration
	// FinalSyncSettle is the pause between the SYNC acks and the final ack.
	FinalSyncSettle time.Duration
	// StepSettle is the pause before each capture command.
	StepSettle time.Duration
	// StepResponseDelay is the pause after each capture command before
	// looking for the ack.
	StepResponseDelay time.Duration
	// ReplyWait is how long to wait for more bytes once the input runs
	// dry while looking for a reply. 0 gives up as soon as it's dry.
	ReplyWait time.Duration
	// ReadTimeout bounds reading the size record and each data package.
	// 0 blocks until bytes arrive.
	ReadTimeout time.Duration
	// ChunkSize is the payload capacity of a data package.
	ChunkSize int
	// Trace enables protocol tracing to glog.
	Trace bool
}

// Defaults
const (
	DefaultSyncAttempts      = 60
	DefaultSyncSettle        = 200 * time.Millisecond
	DefaultFinalSyncSettle   = 50 * time.Millisecond
	DefaultStepSettle        = 100 * time.Millisecond
	DefaultStepResponseDelay = 500 * time.Millisecond
	DefaultReplyWait         = 50 * time.Millisecond
	DefaultChunkSize         = 64

	// MaxPackages keeps the 16-bit package index from wrapping.
	MaxPackages = 1<<16 - 1

	// MaxChunkSize keeps the package size within the camera's 512 bytes.
	MaxChunkSize = 512 - protocol.PackageOverhead
)

var defaultConfig = Config{
	SyncAttempts:      DefaultSyncAttempts,
	SyncSettle:        DefaultSyncSettle,
	FinalSyncSettle:   DefaultFinalSyncSettle,
	StepSettle:        DefaultStepSettle,
	StepResponseDelay: DefaultStepResponseDelay,
	ReplyWait:         DefaultReplyWait,
	ChunkSize:         DefaultChunkSize,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.SyncAttempts, "sync-attempts", defaultConfig.SyncAttempts, "Number of SYNC attempts.")
	flag.DurationVar(&defaultConfig.SyncSettle, "sync-settle", defaultConfig.SyncSettle, "Pause before each SYNC.")
	flag.DurationVar(&defaultConfig.StepSettle, "step-settle", defaultConfig.StepSettle, "Pause before each capture command.")
	flag.DurationVar(&defaultConfig.StepResponseDelay, "step-delay", defaultConfig.StepResponseDelay, "Pause after each capture command.")
	flag.DurationVar(&defaultConfig.ReplyWait, "reply-wait", defaultConfig.ReplyWait, "Idle wait for reply bytes, 0 for none.")
	flag.DurationVar(&defaultConfig.ReadTimeout, "read-timeout", defaultConfig.ReadTimeout, "Timeout reading image data, 0 for none.")
	flag.IntVar(&defaultConfig.ChunkSize, "chunk-size", defaultConfig.ChunkSize, "Payload bytes per data package.")
	flag.BoolVar(&defaultConfig.Trace, "trace", defaultConfig.Trace, "Trace protocol bytes (glog -v=1).")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SyncAttempts <= 0 {
		return fmt.Errorf("sync attempts must be positive")
	}
	if c.ChunkSize <= 0 || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("chunk size must be within 1-%d", MaxChunkSize)
	}
	return nil
}

// NewCamera creates a Camera on the port using the config.
func (c *Config) NewCamera(port transport.Port) (*Camera, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	cam := &Camera{
		Port:   port,
		Config: *c,
		chunk:  make([]byte, c.ChunkSize),
	}
	if c.Trace {
		cam.Tracer = GlogTracer(1)
	}
	return cam, nil
}
