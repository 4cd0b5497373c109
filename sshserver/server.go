// Package sshserver serves crust sessions over SSH.
package sshserver

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"sync"

	gliderssh "github.com/gliderlabs/ssh"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/ssh"

	"pkt.systems/crust"
	"pkt.systems/crust/dispatch"
	"pkt.systems/crust/editor"
	"pkt.systems/crust/internal/logx"
	"pkt.systems/crust/suggest"
	"pkt.systems/crust/terminal"
	"pkt.systems/pslog"
)

// PublicKeyChecker decides whether a login key is allowed.
type PublicKeyChecker interface {
	Contains(key ssh.PublicKey) (bool, error)
}

// Server exposes crust over SSH. Each session gets its own shell, history
// and working directory.
type Server struct {
	Addr        string
	HostKeyPath string
	Listener    net.Listener
	Keys        PublicKeyChecker
	// TOTPSecret, when set, requires a verification code after the public
	// key was accepted.
	TOTPSecret string
	// HomeDir is the starting directory and cd target of every session.
	HomeDir   string
	Shell     crust.Config
	Suggester suggest.Suggester
	Executor  dispatch.Executor
	logger    pslog.Logger
}

type authContextKey string

const loginPubKeyOK authContextKey = "login-pubkey-ok"

// ListenAndServe starts the SSH server and shuts down on context cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.logger == nil {
		s.logger = pslog.Ctx(ctx)
	}
	if s.Keys == nil {
		return errors.New("authorized keys are required for SSH")
	}
	signer, created, err := EnsureHostKey(s.HostKeyPath)
	if err != nil {
		return err
	}
	s.logger.Info("ssh host key", "path", s.HostKeyPath, "created", created, "fingerprint", ssh.FingerprintSHA256(signer.PublicKey()))

	server := &gliderssh.Server{
		Addr:             s.Addr,
		Handler:          s.handleSession,
		PublicKeyHandler: s.handlePublicKey,
	}
	if strings.TrimSpace(s.TOTPSecret) != "" {
		server.KeyboardInteractiveHandler = s.handleKeyboardInteractive
	}
	server.AddHostKey(signer)

	errCh := make(chan error, 1)
	go func() {
		if s.Listener != nil {
			s.logger.Info("ssh listening", "addr", s.Listener.Addr().String(), "totp", s.TOTPSecret != "")
			errCh <- server.Serve(s.Listener)
			return
		}
		s.logger.Info("ssh listening", "addr", s.Addr, "totp", s.TOTPSecret != "")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		_ = server.Close()
		return nil
	case err := <-errCh:
		if errors.Is(err, gliderssh.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handlePublicKey(ctx gliderssh.Context, key gliderssh.PublicKey) bool {
	log := s.logger.With("user", ctx.User(), "remote", remoteAddr(ctx), "fingerprint", ssh.FingerprintSHA256(key))
	ok, err := s.Keys.Contains(key)
	if err != nil {
		log.Warn("ssh pubkey rejected", "err", err)
		return false
	}
	if !ok {
		log.Warn("ssh pubkey rejected", "reason", "no matching key")
		return false
	}
	if strings.TrimSpace(s.TOTPSecret) == "" {
		log.Info("ssh pubkey accepted")
		return true
	}
	ctx.SetValue(loginPubKeyOK, true)
	log.Info("ssh pubkey accepted", "next", "totp")
	return false
}

func (s *Server) handleKeyboardInteractive(ctx gliderssh.Context, challenger ssh.KeyboardInteractiveChallenge) bool {
	if ctx.Value(loginPubKeyOK) != true {
		return false
	}
	log := s.logger.With("user", ctx.User(), "remote", remoteAddr(ctx))
	answers, err := challenger(ctx.User(), "", []string{"Verification code: "}, []bool{false})
	if err != nil {
		log.Warn("ssh totp rejected", "reason", "challenge failed", "err", err)
		return false
	}
	if len(answers) != 1 {
		log.Warn("ssh totp rejected", "reason", "invalid answer count", "count", len(answers))
		return false
	}
	if !totp.Validate(strings.TrimSpace(answers[0]), s.TOTPSecret) {
		log.Warn("ssh totp rejected", "reason", "invalid code")
		return false
	}
	log.Info("ssh totp accepted")
	return true
}

func remoteAddr(ctx gliderssh.Context) string {
	if ctx == nil || ctx.RemoteAddr() == nil {
		return ""
	}
	return ctx.RemoteAddr().String()
}

func (s *Server) handleSession(sess gliderssh.Session) {
	log := s.logger.With("user", sess.User(), "remote", sess.RemoteAddr().String())
	ctx := pslog.ContextWithLogger(sess.Context(), log)
	ctx, log = logx.WithSession(ctx, shortSessionID(sess.Context().SessionID()))

	pty, winCh, ok := sess.Pty()
	if !ok {
		log.Info("ssh session rejected", "reason", "pty required")
		_, _ = io.WriteString(sess, "pty required\n")
		_ = sess.Exit(1)
		return
	}
	go drainWindowChanges(ctx, winCh)

	home := s.HomeDir
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	out := terminal.NewCRLFWriter(sess)
	shell := crust.New(s.Shell, crust.Deps{
		Stdout:    out,
		Stderr:    out,
		Dir:       dispatch.NewSessionDir(home),
		Home:      func() (string, error) { return home, nil },
		Executor:  s.Executor,
		Suggester: s.Suggester,
	})
	defer shell.Close(ctx)

	log.Info("ssh session opened", "term", pty.Term)
	err := shell.RunInteractive(ctx, newSessionTerminal(ctx, sess, out))
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("ssh session failed", "err", err)
		_ = sess.Exit(1)
		return
	}
	log.Info("ssh session closed", "term", pty.Term)
	_ = sess.Exit(0)
}

func drainWindowChanges(ctx context.Context, winCh <-chan gliderssh.Window) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-winCh:
			if !ok {
				return
			}
		}
	}
}

func shortSessionID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// sessionTerminal adapts an SSH channel to crust.Terminal. The client pty is
// already raw, and one key reader lives for the whole session.
type sessionTerminal struct {
	ctx  context.Context
	in   io.Reader
	out  io.Writer
	once sync.Once
	keys chan editor.Key
}

func newSessionTerminal(ctx context.Context, in io.Reader, out io.Writer) *sessionTerminal {
	return &sessionTerminal{ctx: ctx, in: in, out: out, keys: make(chan editor.Key, 64)}
}

func (t *sessionTerminal) Write(p []byte) (int, error) {
	return t.out.Write(p)
}

func (t *sessionTerminal) Raw() (func() error, error) {
	return func() error { return nil }, nil
}

func (t *sessionTerminal) Keys() (<-chan editor.Key, func(), error) {
	t.once.Do(func() {
		go terminal.ReadKeys(t.ctx, t.in, t.keys)
	})
	return t.keys, func() {}, nil
}
