// Package sh is an interactive shell to drive a camera step by step.
package sh

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/ucam.go/pkg/transport"
	"github.com/robotalks/ucam.go/pkg/ucam"
)

// Port is an opened camera port.
type Port interface {
	transport.Port
	io.Closer
}

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	// PortURL is opened before running commands when set.
	PortURL string
	Config  *ucam.Config
	// Dial opens a port, transport.Dial by default.
	Dial func(url string) (Port, error)

	Shell  *ishell.Shell
	Camera *ucam.Camera

	port    Port
	openURL string
}

const (
	shellKey     = "$shell"
	closedPrompt = "[none] > "
)

var (
	// ErrNotOpen indicates no camera port is open.
	ErrNotOpen = errors.New("no camera opened")

	evalOnly bool
	portURL  = os.Getenv("UCAM_PORT")

	commands = []*ishell.Cmd{
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
		&SyncCmd,
		&SnapCmd,
		&FetchCmd,
		&SaveCmd,
		&ShootCmd,
		&SleepCmd,
		&StateCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.StringVar(&portURL, "port", portURL, "Camera port URL to open on start.")
}

func dialPort(url string) (Port, error) {
	return transport.Dial(url)
}

// New creates a new shell.
func New(conf *ucam.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		PortURL:     portURL,
		Config:      conf,
		Dial:        dialPort,
		Shell:       ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// WithCamera wraps a command func which requires an opened camera.
func WithCamera(fn func(c *ishell.Context, cam *ucam.Camera) error) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		cam := ShellFrom(c).Camera
		if cam == nil {
			c.Err(ErrNotOpen)
			return
		}
		if err := fn(c, cam); err != nil {
			c.Err(err)
		}
	}
}

// Open opens the camera on url, closing the current one.
func (s *Shell) Open(url string) error {
	port, err := s.Dial(url)
	if err != nil {
		return err
	}
	cam, err := s.Config.NewCamera(port)
	if err != nil {
		port.Close()
		return err
	}
	s.Close()
	s.port, s.Camera, s.openURL = port, cam, url
	if s.Shell != nil {
		s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", url))
	}
	return nil
}

// Close closes the current camera.
func (s *Shell) Close() {
	if s.port != nil {
		s.port.Close()
		s.port, s.Camera, s.openURL = nil, nil, ""
	}
	if s.Shell != nil {
		s.Shell.SetPrompt(closedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.PortURL != "" {
		if err := s.Open(s.PortURL); err != nil {
			log.Fatalf("open %q failed: %v", s.PortURL, err)
		}
		defer s.Close()
	}
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// Status describes the camera state.
func Status(cam *ucam.Camera) string {
	session := cam.Session()
	switch cam.State() {
	case ucam.StateTransferring:
		return fmt.Sprintf("%s: package %d/%d, %d of %d bytes remaining",
			cam.State(), session.PackageIndex, cam.NumberOfPackages(),
			session.RemainingBytes, session.ImageSize)
	default:
		return cam.State().String()
	}
}

// FetchChunk fetches one package and formats its payload as a hex dump.
func FetchChunk(ctx context.Context, cam *ucam.Camera) (string, error) {
	index := cam.Session().PackageIndex
	n, err := cam.FetchChunk(ctx)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", fmt.Errorf("no image data, take a picture first")
	}
	return fmt.Sprintf("package %d: %d bytes\n%s", index, n, hex.Dump(cam.Chunk())), nil
}

// WriteFile creates the file and fills it with fn.
func WriteFile(name string, fn func(io.Writer) (int64, error)) (int64, error) {
	f, err := os.Create(name)
	if err != nil {
		return 0, err
	}
	n, err := fn(f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return n, err
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"l"},
		Help:    "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := transport.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// OpenCmd opens a camera.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "URL",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("port URL expected"))
				return
			}
			if err := ShellFrom(c).Open(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the camera.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "close the camera port",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// SyncCmd synchronizes with the camera.
	SyncCmd = ishell.Cmd{
		Name: "sync",
		Help: "synchronize with the camera",
		Func: WithCamera(func(c *ishell.Context, cam *ucam.Camera) error {
			if err := cam.Sync(context.Background()); err != nil {
				return err
			}
			c.Println("OK")
			return nil
		}),
	}

	// SnapCmd takes a picture, leaving the data on the camera.
	SnapCmd = ishell.Cmd{
		Name: "snap",
		Help: "take a picture, use fetch or save to get the data",
		Func: WithCamera(func(c *ishell.Context, cam *ucam.Camera) error {
			if err := cam.TakePicture(context.Background()); err != nil {
				return err
			}
			c.Printf("%d bytes in %d packages\n", cam.Session().ImageSize, cam.NumberOfPackages())
			return nil
		}),
	}

	// FetchCmd fetches one data package.
	FetchCmd = ishell.Cmd{
		Name:    "fetch",
		Aliases: []string{"f"},
		Help:    "fetch the next package and dump it",
		Func: WithCamera(func(c *ishell.Context, cam *ucam.Camera) error {
			out, err := FetchChunk(context.Background(), cam)
			if err != nil {
				return err
			}
			c.Print(out)
			return nil
		}),
	}

	// SaveCmd saves the remaining data packages to a file.
	SaveCmd = ishell.Cmd{
		Name: "save",
		Help: "FILE",
		Func: WithCamera(func(c *ishell.Context, cam *ucam.Camera) error {
			if len(c.Args) != 1 {
				return fmt.Errorf("file name expected")
			}
			n, err := WriteFile(c.Args[0], func(w io.Writer) (int64, error) {
				return cam.ReadImage(context.Background(), w)
			})
			if err != nil {
				return err
			}
			c.Printf("%d bytes saved\n", n)
			return nil
		}),
	}

	// ShootCmd runs a complete capture into a file.
	ShootCmd = ishell.Cmd{
		Name: "shoot",
		Help: "FILE",
		Func: WithCamera(func(c *ishell.Context, cam *ucam.Camera) error {
			if len(c.Args) != 1 {
				return fmt.Errorf("file name expected")
			}
			n, err := WriteFile(c.Args[0], func(w io.Writer) (int64, error) {
				return cam.Snap(context.Background(), w)
			})
			if err != nil {
				return err
			}
			c.Printf("%d bytes saved\n", n)
			return nil
		}),
	}

	// SleepCmd puts the camera to sleep.
	SleepCmd = ishell.Cmd{
		Name: "sleep",
		Help: "put the camera to sleep",
		Func: WithCamera(func(c *ishell.Context, cam *ucam.Camera) error {
			if err := cam.Sleep(context.Background()); err != nil {
				return err
			}
			c.Println("OK")
			return nil
		}),
	}

	// StateCmd prints the camera state.
	StateCmd = ishell.Cmd{
		Name:    "state",
		Aliases: []string{"s"},
		Help:    "print the protocol state",
		Func: WithCamera(func(c *ishell.Context, cam *ucam.Camera) error {
			c.Println(Status(cam))
			return nil
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(ucam.Default()).Run(flag.Args()...)
}
