package streamer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"

	"levelone/internal/common"
	"levelone/internal/marketdata"
	"levelone/internal/quote"
)

// Session is one websocket streaming session: connect, login, subscribe,
// listen, logout. The bearer token is read-only for the session's lifetime.
type Session struct {
	info  marketdata.Info
	token string
	opts  Options

	ws      *websocket.Conn
	writeMu sync.Mutex
	parser  fastjson.Parser

	quotesCh   atomic.Value
	state      int32
	reqID      int64
	readFailed int32
}

func NewSession(info marketdata.Info, accessToken string, options ...common.Option) *Session {
	opts := Options{
		Logger:       zerolog.Nop(),
		QueueSize:    64,
		DialTimeout:  10 * time.Second,
		LoginTimeout: 10 * time.Second,
	}
	for _, o := range options {
		if err := o(&opts); err != nil {
			panic("streamer: unknown error setting options")
		}
	}
	return &Session{
		info:  info,
		token: accessToken,
		opts:  opts,
	}
}

func (s *Session) State() State {
	return State(atomic.LoadInt32(&s.state))
}

func (s *Session) setState(st State) {
	atomic.StoreInt32(&s.state, int32(st))
}

func (s *Session) nextRequestID() string {
	return strconv.FormatInt(atomic.AddInt64(&s.reqID, 1), 10)
}

// Start dials the streamer socket, performs the LOGIN handshake, and spawns
// the receive loop. Canceling ctx sends LOGOUT and closes the socket.
func (s *Session) Start(ctx context.Context) error {
	s.opts.Logger.Info().Str("url", s.info.SocketURL).Msg("starting stream session")
	s.setState(Connecting)

	dialer := websocket.Dialer{HandshakeTimeout: s.opts.DialTimeout}
	ws, _, err := dialer.DialContext(ctx, s.info.SocketURL, nil)
	if err != nil {
		s.setState(Failed)
		return err
	}
	s.ws = ws

	if err := s.login(); err != nil {
		s.ws.Close()
		s.setState(Failed)
		return err
	}
	s.setState(LoggedIn)

	msgs := make(chan []byte, 1)

	go func() {
		defer close(msgs)
		for {
			if ctx.Err() != nil {
				return
			}
			if s.opts.IdleTimeout > 0 {
				s.ws.SetReadDeadline(time.Now().Add(s.opts.IdleTimeout))
			}
			_, msg, err := s.ws.ReadMessage()
			if err == nil {
				if len(msg) > 0 {
					select {
					case msgs <- msg:
					case <-ctx.Done():
						return
					}
				}
				continue
			}
			if ctx.Err() != nil {
				return
			}
			if _, closed := err.(*websocket.CloseError); closed {
				s.opts.Logger.Info().Msg("connection closed by peer")
			} else {
				atomic.StoreInt32(&s.readFailed, 1)
				s.opts.Logger.Error().Err(err).Msg("read failed")
			}
			return
		}
	}()

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					// The pump may exit on the ctx check before this
					// loop observes ctx.Done; termination still owes
					// the server a LOGOUT.
					if ctx.Err() != nil {
						s.shutdown()
					} else {
						s.finish()
					}
					return
				}
				s.process(msg)
			case <-ctx.Done():
				s.shutdown()
				return
			}
		}
	}()

	return nil
}

func (s *Session) login() error {
	err := s.send("ADMIN", "LOGIN", map[string]string{
		"Authorization":          s.token,
		"SchwabClientChannel":    s.info.Channel,
		"SchwabClientFunctionId": s.info.FunctionID,
	})
	if err != nil {
		return err
	}
	if s.opts.LoginTimeout > 0 {
		s.ws.SetReadDeadline(time.Now().Add(s.opts.LoginTimeout))
		defer s.ws.SetReadDeadline(time.Time{})
	}
	_, msg, err := s.ws.ReadMessage()
	if err != nil {
		return err
	}
	v, err := s.parser.ParseBytes(msg)
	if err != nil {
		return err
	}
	resp := v.GetArray("response")
	if len(resp) == 0 {
		return fmt.Errorf("streamer: unexpected login response: %s", msg)
	}
	content := resp[0].Get("content")
	if content == nil {
		return fmt.Errorf("streamer: unexpected login response: %s", msg)
	}
	code := content.GetInt("code")
	if code != 0 {
		return &LoginError{Code: code, Msg: string(content.GetStringBytes("msg"))}
	}
	s.opts.Logger.Info().Msg("logged in")
	return nil
}

// SubscribeEquities sends a SUBS request for the given symbols with the
// full equities field list. It returns once the frame is written; any
// acknowledgement arrives asynchronously through the receive loop.
func (s *Session) SubscribeEquities(symbols []string) error {
	switch s.State() {
	case LoggedIn, Subscribed, Listening:
	default:
		return ErrNotLoggedIn
	}
	err := s.send(string(quote.LevelOneEquities), "SUBS", map[string]string{
		"keys":   strings.Join(symbols, ","),
		"fields": quote.FieldList(quote.LevelOneEquities),
	})
	if err != nil {
		return err
	}
	s.setState(Subscribed)
	s.opts.Logger.Info().Strs("symbols", symbols).Msg("subscribed level one equities")
	return nil
}

// Quotes returns the consumer channel, creating it on first call. Without
// a consumer, decoded updates are dropped rather than buffered.
func (s *Session) Quotes() <-chan *quote.Update {
	if ch := s.quotesCh.Load(); ch != nil {
		return ch.(chan *quote.Update)
	}
	ch := make(chan *quote.Update, s.opts.QueueSize)
	s.quotesCh.Store(ch)
	return ch
}

func (s *Session) send(service, command string, params map[string]string) error {
	buf, err := json.Marshal(envelope{Requests: []request{{
		RequestID:  s.nextRequestID(),
		Service:    service,
		Command:    command,
		CustomerID: s.info.CustomerID,
		CorrelID:   s.info.CorrelID,
		Parameters: params,
	}}})
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.ws.WriteMessage(websocket.TextMessage, buf)
}

func (s *Session) process(msg []byte) {
	v, err := s.parser.ParseBytes(msg)
	if err != nil {
		s.opts.Logger.Warn().Err(err).Msg("malformed frame")
		return
	}
	if !v.Exists("data") {
		// Response, notify and heartbeat frames.
		s.opts.Logger.Debug().RawJSON("frame", msg).Msg("non-data frame")
		return
	}
	if s.State() == Subscribed {
		s.setState(Listening)
	}
	for _, d := range v.GetArray("data") {
		service := string(d.GetStringBytes("service"))
		switch quote.Service(service) {
		case quote.LevelOneEquities:
			upd := quote.DecodeEquities(d)
			s.publish(&upd)
		default:
			// New service types must not crash the session.
			s.opts.Logger.Warn().Str("service", service).Msg("unhandled service, dropping")
		}
	}
}

func (s *Session) publish(upd *quote.Update) {
	ch := s.quotesCh.Load()
	if ch == nil {
		return
	}
	select {
	case ch.(chan *quote.Update) <- upd:
	default:
		s.opts.Logger.Warn().Msg("consumer queue full, dropping update")
	}
}

// finish handles the pump exiting on its own: Closed after a clean
// peer close, Failed after an abrupt disconnect.
func (s *Session) finish() {
	s.ws.Close()
	s.closeQuotes()
	if atomic.LoadInt32(&s.readFailed) != 0 {
		s.setState(Failed)
		return
	}
	s.setState(Closed)
}

// shutdown handles cancellation: LOGOUT, then close. Closing the socket
// also unblocks the receive pump.
func (s *Session) shutdown() {
	s.setState(Closing)
	if err := s.send("ADMIN", "LOGOUT", map[string]string{}); err != nil {
		s.opts.Logger.Warn().Err(err).Msg("logout failed")
	}
	s.opts.Logger.Info().Msg("closing connection")
	s.ws.Close()
	s.closeQuotes()
	s.setState(Closed)
}

func (s *Session) closeQuotes() {
	if ch := s.quotesCh.Load(); ch != nil {
		close(ch.(chan *quote.Update))
	}
}
