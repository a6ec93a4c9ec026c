package remoteshell

import (
	"crypto/tls"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/edgefleet/agent/internal/logging"
)

const (
	connectPath     = "/api/devices/v1/deviceconnect/connect"
	reconnectWait   = 5 * time.Second
	defaultShellBin = "/bin/sh"
)

// Controller owns the single remote-shell session (C8). EnsureRunning
// is idempotent: it starts the connect-and-pump goroutine once per
// process, regardless of how many times the idle loop calls it.
type Controller struct {
	serverURL string
	tlsConfig *tls.Config
	tokenFunc func() string
	shellPath string

	once sync.Once

	mu      sync.Mutex
	conn    *websocket.Conn
	current *session
}

// New builds a Controller. tokenFunc is consulted on every (re)connect
// attempt so a freshly authorized token is always used.
func New(serverURL string, tlsConfig *tls.Config, tokenFunc func() string) *Controller {
	return &Controller{
		serverURL: serverURL,
		tlsConfig: tlsConfig,
		tokenFunc: tokenFunc,
		shellPath: defaultShellBin,
	}
}

// EnsureRunning starts the session thread the first time it's called
// and is a no-op afterward, per spec §4.9 step 1.
func (c *Controller) EnsureRunning() {
	c.once.Do(func() {
		go c.runForever()
	})
}

func (c *Controller) runForever() {
	for {
		if err := c.connectAndServe(); err != nil {
			logging.Op().Info("remoteshell: connection ended, reconnecting", "error", err)
		}
		time.Sleep(reconnectWait)
	}
}

func wsURL(serverURL string) string {
	u := serverURL
	u = strings.Replace(u, "https://", "wss://", 1)
	u = strings.Replace(u, "http://", "ws://", 1)
	return u + connectPath
}

func (c *Controller) connectAndServe() error {
	dialer := websocket.Dialer{TLSClientConfig: c.tlsConfig}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.tokenFunc())

	conn, _, err := dialer.Dial(wsURL(c.serverURL), header)
	if err != nil {
		return err
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.teardownSession()
			return err
		}

		f, err := decodeFrame(data)
		if err != nil {
			logging.Op().Warn("remoteshell: dropping malformed frame", "error", err)
			continue
		}

		c.dispatch(f)
	}
}

func (c *Controller) dispatch(f frame) {
	switch frameType(f.Hdr.Typ) {
	case frameNew:
		c.handleNew(f.Hdr.Sid)
	case frameShell:
		c.handleShell(f.Hdr.Sid, f.Body)
	case frameStop:
		c.handleStop()
	default:
		logging.Op().Info("remoteshell: ignoring unknown frame type", "typ", f.Hdr.Typ)
	}
}

func (c *Controller) handleNew(sid string) {
	c.mu.Lock()
	if c.current != nil {
		c.mu.Unlock()
		return // a second "new" while a session is active is ignored (spec §4.8)
	}
	c.mu.Unlock()

	sess, err := startSession(sid, c.shellPath)
	if err != nil {
		logging.Op().Error("remoteshell: failed to start session", "error", err)
		return
	}

	c.mu.Lock()
	c.current = sess
	c.mu.Unlock()

	if err := c.send(newStatusFrame(sid)); err != nil {
		logging.Op().Warn("remoteshell: failed to send new-session status", "error", err)
	}

	go sess.pumpShellToWire(c.send)
}

func (c *Controller) handleShell(sid string, body []byte) {
	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()
	if sess == nil || sess.sid != sid {
		return
	}
	sess.writeToShell(body)
}

func (c *Controller) handleStop() {
	sid := c.teardownSession()
	if sid == "" {
		return
	}
	if err := c.send(stopStatusFrame(sid)); err != nil {
		logging.Op().Warn("remoteshell: failed to send stop status", "error", err)
	}
}

// teardownSession stops the active session (if any) and returns its
// sid, or "" if there was none.
func (c *Controller) teardownSession() string {
	c.mu.Lock()
	sess := c.current
	c.current = nil
	c.mu.Unlock()

	if sess == nil {
		return ""
	}
	sess.stop()
	return sess.sid
}

// send writes f to the active connection under a write lock; gorilla's
// websocket.Conn permits only one concurrent writer.
func (c *Controller) send(f frame) error {
	data, err := encodeFrame(f)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return websocket.ErrCloseSent
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}
