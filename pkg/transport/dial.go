package transport

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/websocket"
)

// Target is a parsed port URL.
type Target struct {
	Scheme   string
	Address  string
	BaudRate int
}

// ParseTarget parses a port URL:
//   /dev/ttyUSB0                      serial device
//   serial:///dev/ttyUSB0?baud=57600  serial device with baud rate
//   tcp://host:port                   raw TCP bridge (e.g. ser2net)
//   ws://host:port/path               websocket bridge, binary frames
func ParseTarget(rawURL string) (*Target, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("port URL is empty")
	}
	if !strings.Contains(rawURL, "://") {
		return &Target{Scheme: "serial", Address: rawURL, BaudRate: DefaultBaudRate}, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid port URL: %v", err)
	}
	t := &Target{Scheme: u.Scheme}
	switch u.Scheme {
	case "serial":
		t.Address, t.BaudRate = u.Host+u.Path, DefaultBaudRate
		if val := u.Query().Get("baud"); val != "" {
			if t.BaudRate, err = strconv.Atoi(val); err != nil || t.BaudRate <= 0 {
				return nil, fmt.Errorf("invalid baud rate: %q", val)
			}
		}
		if t.Address == "" {
			return nil, fmt.Errorf("serial device missing in %q", rawURL)
		}
	case "tcp":
		if t.Address = u.Host; t.Address == "" {
			return nil, fmt.Errorf("host missing in %q", rawURL)
		}
	case "ws", "wss":
		t.Address = rawURL
	default:
		return nil, fmt.Errorf("unknown port URL scheme: %q", u.Scheme)
	}
	return t, nil
}

// Dial opens the port the URL points to.
func Dial(rawURL string) (*Stream, error) {
	t, err := ParseTarget(rawURL)
	if err != nil {
		return nil, err
	}
	return t.Dial()
}

// Dial opens the port.
func (t *Target) Dial() (*Stream, error) {
	switch t.Scheme {
	case "serial":
		return OpenSerial(t.Address, t.BaudRate)
	case "tcp":
		conn, err := net.Dial("tcp", t.Address)
		if err != nil {
			return nil, err
		}
		return NewStream(conn), nil
	case "ws", "wss":
		origin := "http://localhost/"
		conn, err := websocket.Dial(t.Address, "", origin)
		if err != nil {
			return nil, err
		}
		conn.PayloadType = websocket.BinaryFrame
		return NewStream(conn), nil
	}
	return nil, fmt.Errorf("unknown port URL scheme: %q", t.Scheme)
}
