package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ilosync/ilosync/internal/configuration"
	"github.com/ilosync/ilosync/internal/hwerr"
	"github.com/ilosync/ilosync/internal/ui"
	"golang.org/x/crypto/ssh"
)

// SshChannel executes commands over the controller's SSH shell. The session
// is dialed lazily and re-dialed after a reset. A single mutex serializes all
// commands, across every domain, because it is one physical session.
type SshChannel struct {
	address   string
	sshConfig *ssh.ClientConfig

	mu     sync.Mutex
	client *ssh.Client
}

func NewSshChannel(config configuration.IloConfig) *SshChannel {
	sshConfig := &ssh.ClientConfig{
		User: config.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(config.Password),
		},
		// controller firmware ships ancient host keys and kex algorithms
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         config.QueryTimeout,
	}
	sshConfig.KeyExchanges = append(sshConfig.KeyExchanges,
		"diffie-hellman-group14-sha1", "diffie-hellman-group1-sha1")
	sshConfig.Ciphers = append(sshConfig.Ciphers,
		"aes128-cbc", "3des-cbc")

	return &SshChannel{
		address:   fmt.Sprintf("%s:%d", config.Host, config.SshPort),
		sshConfig: sshConfig,
	}
}

type executeResult struct {
	output string
	err    error
}

func (c *SshChannel) Execute(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(); err != nil {
		return "", err
	}

	session, err := c.client.NewSession()
	if err != nil {
		// connection died since the last command, retry once with a fresh one
		c.resetLocked()
		if err = c.connectLocked(); err != nil {
			return "", err
		}
		session, err = c.client.NewSession()
		if err != nil {
			c.resetLocked()
			return "", hwerr.Wrap(hwerr.KindRemoteUnreachable, err, "opening session to %s", c.address)
		}
	}
	defer func() {
		_ = session.Close()
	}()

	done := make(chan executeResult, 1)
	go func() {
		output, err := session.CombinedOutput(command)
		done <- executeResult{output: string(output), err: err}
	}()

	select {
	case <-ctx.Done():
		// the remote end may still be processing the command. Drop the whole
		// connection so the next command starts from a clean session instead
		// of reading a stale response.
		c.resetLocked()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", hwerr.Wrap(hwerr.KindCommandTimeout, ctx.Err(), "command %q timed out", command)
		}
		return "", hwerr.Wrap(hwerr.KindRemoteUnreachable, ctx.Err(), "command %q canceled", command)
	case result := <-done:
		if result.err != nil {
			var exitErr *ssh.ExitError
			if errors.As(result.err, &exitErr) {
				return "", hwerr.New(hwerr.KindCommandRejected,
					"controller rejected %q (exit %d): %s", command, exitErr.ExitStatus(), strings.TrimSpace(result.output))
			}
			c.resetLocked()
			return "", hwerr.Wrap(hwerr.KindRemoteUnreachable, result.err, "executing %q", command)
		}
		if rejected, message := deviceError(result.output); rejected {
			// exit status 0 but the firmware printed an error
			return "", hwerr.New(hwerr.KindCommandRejected, "controller rejected %q: %s", command, message)
		}
		return result.output, nil
	}
}

func (c *SshChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

func (c *SshChannel) connectLocked() error {
	if c.client != nil {
		return nil
	}
	ui.Debug("Dialing controller shell at %s", c.address)
	client, err := ssh.Dial("tcp", c.address, c.sshConfig)
	if err != nil {
		return hwerr.Wrap(hwerr.KindRemoteUnreachable, err, "connecting to %s", c.address)
	}
	c.client = client
	return nil
}

func (c *SshChannel) resetLocked() {
	if c.client == nil {
		return
	}
	_ = c.client.Close()
	c.client = nil
}

// deviceError scans shell output for firmware-reported errors, which come
// back with a zero exit status.
func deviceError(output string) (bool, string) {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "ERROR:") || strings.HasPrefix(trimmed, "Invalid ") {
			return true, trimmed
		}
	}
	return false, ""
}
