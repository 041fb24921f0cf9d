package download

import (
	"bufio"
	"fmt"
	"net"
)

// Client is a thin wrapper over one connection to a Manager's Unix
// socket, used by independent front-end processes to queue downloads.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to a Manager listening at socketPath.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("download client: dialing %s: %w", socketPath, err)
	}
	return &Client{conn: conn, r: bufio.NewReader(conn)}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

// Download queues one URI for download and blocks until the manager
// reports it done or failed.
func (c *Client) Download(uri, targetPath string, expectedSize int64, expectedSHA256 string) error {
	tokens := []string{CmdDownload, uri, targetPath, fmt.Sprintf("%d", expectedSize), expectedSHA256}
	if _, err := c.conn.Write(Message{Tokens: tokens}.Encode()); err != nil {
		return fmt.Errorf("download client: writing request: %w", err)
	}

	// The manager sends "start" immediately, then exactly one of
	// "done"/"error" once the transfer finishes.
	if _, err := ReadMessage(c.r); err != nil {
		return fmt.Errorf("download client: reading start event: %w", err)
	}
	msg, err := ReadMessage(c.r)
	if err != nil {
		return fmt.Errorf("download client: reading completion event: %w", err)
	}
	if len(msg.Tokens) == 0 {
		return fmt.Errorf("download client: empty completion event")
	}
	switch msg.Tokens[0] {
	case EventDone:
		return nil
	case EventError:
		reason := ""
		if len(msg.Tokens) > 2 {
			reason = msg.Tokens[2]
		}
		return fmt.Errorf("download of %s failed: %s", uri, reason)
	default:
		return fmt.Errorf("download client: unexpected event %q", msg.Tokens[0])
	}
}

// Shutdown asks the manager to stop serving this connection.
func (c *Client) Shutdown() error {
	_, err := c.conn.Write(Message{Tokens: []string{CmdShutdown}}.Encode())
	return err
}
