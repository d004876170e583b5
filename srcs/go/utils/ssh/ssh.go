// Package ssh is a simple wrapper for golang.org/x/crypto/ssh
package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

var DefaultTimeout = 8 * time.Second

var errNoAuthMethod = errors.New("no ssh agent or private key available")

// Config describes how to reach one host.
type Config struct {
	User    string
	Host    string
	KeyFile string
	Timeout time.Duration

	// StrictHostKey checks the host key against ~/.ssh/known_hosts.
	StrictHostKey bool
}

func withDefaultPort(host string) string {
	_, _, err := net.SplitHostPort(host)
	if err == nil {
		return host
	}
	const defaultPort = "22"
	return net.JoinHostPort(host, defaultPort)
}

func withDefaultUser(name string) string {
	if len(name) == 0 {
		if u, err := user.Current(); err == nil {
			return u.Username
		}
	}
	return name
}

func completeConfig(config Config) Config {
	config.User = withDefaultUser(config.User)
	config.Host = withDefaultPort(config.Host)
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return config
}

func authMethods(keyFile string) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if sock := os.Getenv("SSH_AUTH_SOCK"); len(sock) > 0 {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}
	var signers []ssh.Signer
	for _, file := range keyFiles(keyFile) {
		buf, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		key, err := ssh.ParsePrivateKey(buf)
		if err != nil {
			continue
		}
		signers = append(signers, key)
	}
	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}
	if len(methods) == 0 {
		return nil, errNoAuthMethod
	}
	return methods, nil
}

func keyFiles(keyFile string) []string {
	home, err := os.UserHomeDir()
	if len(keyFile) > 0 {
		if strings.HasPrefix(keyFile, "~/") && err == nil {
			keyFile = filepath.Join(home, keyFile[2:])
		}
		return []string{keyFile}
	}
	if err != nil {
		return nil
	}
	var files []string
	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		files = append(files, filepath.Join(home, ".ssh", name))
	}
	return files
}

func hostKeyCallback(strict bool) (ssh.HostKeyCallback, error) {
	if !strict {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return knownhosts.New(filepath.Join(home, ".ssh", "known_hosts"))
}

func newSSHClient(ctx context.Context, config Config) (*ssh.Client, error) {
	config = completeConfig(config)
	auth, err := authMethods(config.KeyFile)
	if err != nil {
		return nil, err
	}
	hostKey, err := hostKeyCallback(config.StrictHostKey)
	if err != nil {
		return nil, err
	}
	clientConfig := &ssh.ClientConfig{
		User:            config.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         config.Timeout,
	}
	d := net.Dialer{Timeout: config.Timeout}
	conn, err := d.DialContext(ctx, "tcp", config.Host)
	if err != nil {
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, config.Host, clientConfig)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

// Client is a wrapper for ssh.Client
type Client struct {
	config Config
	client *ssh.Client
}

// New creates a new Client
func New(ctx context.Context, cfg Config) (*Client, error) {
	client, err := newSSHClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{config: cfg, client: client}, nil
}

func (c *Client) String() string {
	return fmt.Sprintf("%s@%s", c.config.User, c.config.Host)
}

// ExitError is returned when the remote command ran but exited non-zero.
type ExitError struct {
	Status int
	Stderr string
}

func (e *ExitError) Error() string {
	if len(e.Stderr) > 0 {
		return fmt.Sprintf("exit status %d: %s", e.Status, e.Stderr)
	}
	return fmt.Sprintf("exit status %d", e.Status)
}

// Output runs cmd remotely and returns its stdout.
func (c *Client) Output(ctx context.Context, cmd string) (string, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return "", err
	}
	defer session.Close()
	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if err := session.Start(cmd); err != nil {
		return "", err
	}
	done := make(chan error, 1)
	go func() { done <- session.Wait() }()
	select {
	case err := <-done:
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return stdout.String(), &ExitError{Status: exitErr.ExitStatus(), Stderr: string(bytes.TrimSpace(stderr.Bytes()))}
		}
		return stdout.String(), err
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		session.Close()
		return stdout.String(), ctx.Err()
	}
}

// Close closes the client
func (c *Client) Close() error {
	return c.client.Close()
}
