package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// ExecHandler answers one exec request of the test server.
type ExecHandler func(command string) (stdout, stderr string, status uint32)

// SSHServer is an in-process SSH server accepting password logins. Exec
// requests are answered by Handler; the "sftp" subsystem is served from
// memory and shared by every connection.
type SSHServer struct {
	Host     string
	Port     int
	User     string
	Password string
	Handler  ExecHandler

	listener net.Listener
	config   *ssh.ServerConfig
	sftpRoot sftp.Handlers

	mu       sync.Mutex
	commands []string
	conns    int
}

// StartSSHServer listens on a random local port until the test ends.
func StartSSHServer(t testing.TB, user, password string) *SSHServer {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("Failed to create host signer: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	s := &SSHServer{
		User:     user,
		Password: password,
		Handler: func(string) (string, string, uint32) {
			return "", "", 0
		},
		listener: listener,
		sftpRoot: sftp.InMemHandler(),
	}
	host, port, _ := net.SplitHostPort(listener.Addr().String())
	s.Host = host
	s.Port, _ = strconv.Atoi(port)

	s.config = &ssh.ServerConfig{
		PasswordCallback: func(meta ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if meta.User() == s.User && string(pass) == s.Password {
				return nil, nil
			}
			return nil, errPasswordRejected
		},
	}
	s.config.AddHostKey(signer)

	go s.serve()
	t.Cleanup(func() { _ = listener.Close() })
	return s
}

var errPasswordRejected = errors.New("password rejected")

// Commands returns the exec requests received so far.
func (s *SSHServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Connections returns how many connections completed the handshake.
func (s *SSHServer) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

func (s *SSHServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.serveConn(conn)
	}
}

func (s *SSHServer) serveConn(conn net.Conn) {
	defer conn.Close()

	_, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns++
	s.mu.Unlock()

	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		ch, requests, err := newChannel.Accept()
		if err != nil {
			continue
		}
		go s.serveSession(ch, requests)
	}
}

func (s *SSHServer) serveSession(ch ssh.Channel, requests <-chan *ssh.Request) {
	defer ch.Close()

	for req := range requests {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)

			s.mu.Lock()
			s.commands = append(s.commands, payload.Command)
			handler := s.Handler
			s.mu.Unlock()

			stdout, stderr, status := handler(payload.Command)
			_, _ = ch.Write([]byte(stdout))
			_, _ = ch.Stderr().Write([]byte(stderr))
			_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
			return

		case "subsystem":
			var payload struct{ Name string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil || payload.Name != "sftp" {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)

			server := sftp.NewRequestServer(ch, s.sftpRoot)
			_ = server.Serve()
			_ = server.Close()
			return

		default:
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
		}
	}
}

// SetHandler replaces the exec handler.
func (s *SSHServer) SetHandler(h ExecHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Handler = h
}
