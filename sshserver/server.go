// Package sshserver owns the TCP listener, SSH handshake, and per-
// channel session wiring. It is adapted in place from the teacher's
// server.go: AcceptConnections keeps the same accept-loop shape and
// handleSSHRequests keeps the same pty-req/window-change reply
// handling, but the activeClientsMap bookkeeping and ui.SSHTerminalBridge
// wiring are replaced by calls into room.Room and session.Session.
package sshserver

import (
	"encoding/binary"
	"errors"
	"net"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"chatd/auth"
	"chatd/command"
	"chatd/room"
	"chatd/session"
	"chatd/user"
)

// Server manages SSH connections and wires each accepted channel to the
// room engine through a session.Session.
type Server struct {
	sshServerConfig *ssh.ServerConfig
	tcpListener     net.Listener

	rm       *room.Room
	registry *command.Registry
	log      *zap.SugaredLogger
}

// New builds a Server. Call Listen before AcceptConnections.
func New(sauth *auth.SSHAuth, rm *room.Room, registry *command.Registry, log *zap.SugaredLogger) *Server {
	ss := &Server{
		sshServerConfig: &ssh.ServerConfig{
			PublicKeyCallback: sauth.HandlePublicKeyLogin,
		},
		rm:       rm,
		registry: registry,
		log:      log,
	}
	ss.sshServerConfig.AddHostKey(sauth.HostSSHPrivateKey)
	return ss
}

// Listen opens the TCP listener at addr.
func (ss *Server) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	ss.tcpListener = listener
	return nil
}

// AcceptConnections accepts TCP connections and performs the SSH
// handshake on each, handing off to handleConnection.
func (ss *Server) AcceptConnections() {
	for {
		nConn, err := ss.tcpListener.Accept()
		if err != nil {
			if errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
				ss.log.Warnw("temporary accept error", "err", err)
				continue
			}
			ss.log.Fatalw("fatal accept error", "err", err)
		}

		conn, chans, reqs, err := ssh.NewServerConn(nConn, ss.sshServerConfig)
		if err != nil {
			ss.log.Infow("handshake failed", "err", err)
			nConn.Close()
			continue
		}
		ss.log.Infow("client authenticated", "user", conn.User(), "fingerprint", conn.Permissions.Extensions["pubkey-fp"])
		go ss.handleConnection(conn, chans, reqs)
	}
}

// handleConnection services the channels opened on one SSH connection.
func (ss *Server) handleConnection(conn *ssh.ServerConn, chans <-chan ssh.NewChannel, reqs <-chan *ssh.Request) {
	defer conn.Close()
	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}

		ch, sshRequests, err := newChan.Accept()
		if err != nil {
			ss.log.Infow("could not accept channel", "err", err)
			continue
		}

		sessionID := uuid.New().String()
		env := newChannelEnv()
		go ss.handleSSHRequests(sshRequests, env)

		go ss.runSession(conn, ch, sessionID, env)
	}
}

// runSession builds the session's initial state from the negotiated
// environment and drives it to completion.
func (ss *Server) runSession(conn *ssh.ServerConn, ch ssh.Channel, sessionID string, env *channelEnv) {
	defer ch.Close()

	fingerprint := conn.Permissions.Extensions["pubkey-fp"]
	u := user.New(fingerprint, sanitizeName(conn.User()), false)
	prefs := env.preferences()

	sess := session.New(ch, fingerprint, ss.rm, ss.registry)
	ss.log.Infow("session starting", "session", sessionID, "fingerprint", fingerprint)

	if err := sess.Run(u, prefs); err != nil {
		ss.log.Infow("session ended with error", "session", sessionID, "err", err)
		return
	}
	ss.log.Infow("session ended", "session", sessionID)
}

// sanitizeName strips characters spec.md §3's display-name rule
// disallows from the SSH login name, so an odd client doesn't hand the
// room an unrenderable initial name (the room still uniquifies it).
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r > 0x20 && r != 0x7f {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}

// handleSSHRequests replies to pty-req/shell/window-change/env requests,
// recording CHATD_THEME/CHATD_TIMESTAMP into env as they arrive.
func (ss *Server) handleSSHRequests(reqs <-chan *ssh.Request, env *channelEnv) {
	for req := range reqs {
		switch req.Type {
		case "pty-req", "shell", "window-change":
			if req.WantReply {
				req.Reply(true, nil)
			}
		case "env":
			if name, value, ok := parseEnvRequest(req.Payload); ok {
				env.set(name, value)
			}
			if req.WantReply {
				req.Reply(true, nil)
			}
		default:
			if req.WantReply {
				req.Reply(false, nil)
			}
		}
	}
}

// parseEnvRequest decodes an SSH "env" channel request payload: two
// consecutive SSH strings (4-byte big-endian length prefix + bytes),
// name then value.
func parseEnvRequest(payload []byte) (name, value string, ok bool) {
	name, rest, ok := readSSHString(payload)
	if !ok {
		return "", "", false
	}
	value, _, ok = readSSHString(rest)
	if !ok {
		return "", "", false
	}
	return name, value, true
}

func readSSHString(b []byte) (s string, rest []byte, ok bool) {
	if len(b) < 4 {
		return "", nil, false
	}
	n := binary.BigEndian.Uint32(b[:4])
	if uint32(len(b)-4) < n {
		return "", nil, false
	}
	return string(b[4 : 4+n]), b[4+n:], true
}

// channelEnv collects the client-forwarded environment for one channel
// before the session starts consuming it.
type channelEnv struct {
	mu   sync.Mutex
	vars map[string]string
}

func newChannelEnv() *channelEnv {
	return &channelEnv{vars: make(map[string]string)}
}

func (e *channelEnv) set(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[name] = value
}

func (e *channelEnv) get(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.vars[name]
	return v, ok
}

// preferences derives initial user preferences from CHATD_THEME and
// CHATD_TIMESTAMP, per spec.md §4.8, falling back to defaults for
// anything absent or unrecognized.
func (e *channelEnv) preferences() user.Preferences {
	prefs := user.DefaultPreferences()
	if theme, ok := e.get("CHATD_THEME"); ok && theme != "" {
		prefs.Theme = theme
	}
	if ts, ok := e.get("CHATD_TIMESTAMP"); ok {
		switch ts {
		case "off":
			prefs.Timestamp = user.TimestampOff
		case "time":
			prefs.Timestamp = user.TimestampTime
		case "datetime":
			prefs.Timestamp = user.TimestampDateTime
		}
	}
	return prefs
}
