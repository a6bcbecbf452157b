package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/portfolio/internal/client"
)

// newAPIClient creates a client for --server. With requireLogin the saved
// session must exist, match the server and not be expired.
func newAPIClient(requireLogin bool) (*client.Client, error) {
	server := resolveServerURL()

	var opts []client.Option
	path, err := client.DefaultSessionPath()
	if err != nil {
		return nil, err
	}
	saved, err := client.LoadSession(path)
	if err != nil {
		return nil, err
	}
	if saved.Valid(server, time.Now()) {
		opts = append(opts, client.WithToken(saved.SessionID))
	} else if requireLogin {
		return nil, errors.New("not logged in, run: portfolio login")
	}

	c, err := client.New(server, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return c, nil
}
