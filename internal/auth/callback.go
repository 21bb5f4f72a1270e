package auth

import (
	"net"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// codeListener captures the authorization code from the provider's redirect.
// The first code is handed off on a single-slot channel; later hits are
// ignored. It serves TLS when a certificate pair is configured, since some
// providers require an https redirect URI.
type codeListener struct {
	addr     string
	certFile string
	keyFile  string
	log      zerolog.Logger

	srv   *http.Server
	codes chan string
	once  sync.Once
}

func newCodeListener(addr, certFile, keyFile string, logger zerolog.Logger) *codeListener {
	l := &codeListener{
		addr:     addr,
		certFile: certFile,
		keyFile:  keyFile,
		log:      logger,
		codes:    make(chan string, 1),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", l.handle)
	l.srv = &http.Server{Handler: mux}
	return l
}

func (l *codeListener) handle(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	l.once.Do(func() {
		l.codes <- code
	})
	w.WriteHeader(http.StatusOK)
}

func (l *codeListener) Start() error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return err
	}
	go func() {
		var err error
		if l.certFile != "" && l.keyFile != "" {
			err = l.srv.ServeTLS(ln, l.certFile, l.keyFile)
		} else {
			err = l.srv.Serve(ln)
		}
		if err != nil && err != http.ErrServerClosed {
			l.log.Warn().Err(err).Msg("callback listener stopped")
		}
	}()
	l.log.Debug().Str("addr", l.addr).Msg("callback listener started")
	return nil
}

func (l *codeListener) Codes() <-chan string {
	return l.codes
}

func (l *codeListener) Close() error {
	return l.srv.Close()
}
