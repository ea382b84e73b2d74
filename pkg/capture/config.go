package capture

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/robotalks/ucam.go/pkg/env"
	"github.com/robotalks/ucam.go/pkg/mqtt"
	"github.com/robotalks/ucam.go/pkg/transport"
	"github.com/robotalks/ucam.go/pkg/ucam"
)

// Config defines the capture service.
type Config struct {
	// PortURL is the camera port, see transport.ParseTarget.
	PortURL string
	// ID identifies the camera in MQTT topics. Defaults to the machine ID.
	ID string
	// MQTTBrokerURL enables publishing when set.
	// e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string
	// Interval between automatic captures, 0 only captures on request.
	Interval time.Duration
	// OutDir saves images as <id>.jpg when set.
	OutDir string
}

var defaultConfig = Config{
	PortURL: "/dev/ttyUSB0",
}

func init() {
	if val := os.Getenv("UCAM_PORT"); val != "" {
		defaultConfig.PortURL = val
	}
	if val := os.Getenv("UCAM_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("UCAM_ID"); val != "" {
		defaultConfig.ID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.PortURL, "port", defaultConfig.PortURL, "Camera port URL (device path, serial://, tcp://, ws://)")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Camera ID, default is derived from the machine ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Capture interval, 0 to capture on request only")
	flag.StringVar(&defaultConfig.OutDir, "out", defaultConfig.OutDir, "Directory to save images")
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
	if c.Interval < 0 {
		return fmt.Errorf("negative interval")
	}
	if c.OutDir != "" {
		info, err := os.Stat(c.OutDir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", c.OutDir)
		}
	}
	return nil
}

// NewService creates a Service capturing with cam. closer, if not nil,
// is closed with the service.
func (c *Config) NewService(cam *ucam.Camera, closer io.Closer) (*Service, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		Config:    *c,
		Camera:    cam,
		closer:    closer,
		triggerCh: make(chan struct{}, 1),
		now:       time.Now,
	}
	if s.Config.ID == "" {
		s.Config.ID = env.MachineID()
	}
	if c.MQTTBrokerURL != "" {
		opts, err := mqtt.ParseURL(c.MQTTBrokerURL)
		if err != nil {
			return nil, fmt.Errorf("invalid MQTT broker URL: %w", err)
		}
		opts.SetDefaultClientID("ucam:" + s.Config.ID).SetWill(s.topic(TopicMeta), nil)
		s.Queue = opts.NewQueue()
		s.Queue.OnDisconnect = s.dropTriggers
	}
	return s, nil
}

// Open opens the camera port and creates the Service.
func (c *Config) Open(camConf *ucam.Config) (*Service, error) {
	port, err := transport.Dial(c.PortURL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.PortURL, err)
	}
	cam, err := camConf.NewCamera(port)
	if err != nil {
		port.Close()
		return nil, err
	}
	s, err := c.NewService(cam, port)
	if err != nil {
		port.Close()
		return nil, err
	}
	return s, nil
}
