package main

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"levelone/internal/auth"
	"levelone/internal/common"
	"levelone/internal/common/syncio"
	"levelone/internal/config"
	"levelone/internal/marketdata"
	"levelone/internal/mainutil"
	"levelone/internal/streamer"
	"levelone/internal/terminate"
)

var Options struct {
	Env     string
	Queue   int `traits:"ge=1"`
	Timeout time.Duration `traits:"gt=0"`
	Idle    time.Duration
	Verbose bool
	Help    bool
}

var flags flag.FlagSet

func init() {
	flags.StringVarP(&Options.Env, "env", "e", "", "env file")
	flags.IntVarP(&Options.Queue, "queue", "q", 64, "consumer queue size")
	flags.DurationVarP(&Options.Timeout, "timeout", "t", 10*time.Second, "dial and login timeout")
	flags.DurationVarP(&Options.Idle, "idle", "", 0, "stale connection watchdog")
	flags.BoolVarP(&Options.Verbose, "verbose", "v", false, "verbose logging")
	flags.BoolVarP(&Options.Help, "help", "", false, "this help message")
	flags.SetInterspersed(false)
	flags.SetOutput(io.Discard)
}

func run() (err error, ret int) {
	if err := mainutil.ParseArgs(&flags); err != nil {
		if err == flag.ErrHelp {
			Options.Help = true
		} else {
			return err, 1
		}
	}
	if Options.Help {
		stdout.Print(flags.FlagUsages())
		return nil, 1
	}
	if err := mainutil.Validate(Options); err != nil {
		stderr.Print(err)
		return nil, 1
	}
	if flags.NArg() == 0 {
		stderr.Print("Symbols?")
		return nil, 1
	}
	symbols := make([]string, 0, flags.NArg())
	for _, arg := range flags.Args() {
		if s := strings.ToUpper(arg); !common.ContainsString(symbols, s) {
			symbols = append(symbols, s)
		}
	}

	cfg, err := config.Load(Options.Env)
	if err != nil {
		return err, 1
	}

	level := zerolog.InfoLevel
	if Options.Verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	creds := auth.New(auth.Config{
		AppKey:      cfg.AppKey,
		SecretKey:   cfg.SecretKey,
		CallbackURL: cfg.CallbackURL,
		AuthURL:     cfg.AuthURL,
		TokenURL:    cfg.TokenURL,
		TokenFile:   cfg.TokenFile,
		ListenAddr:  cfg.ListenAddr,
		CertFile:    cfg.CertFile,
		KeyFile:     cfg.KeyFile,
		CodeTimeout: cfg.CodeTimeout,
	}, common.OptionLogger(logger), common.OptionStdout(stdout))

	token, err := creds.Token(ctx)
	if err != nil {
		return err, 1
	}

	client := marketdata.NewClient(token, common.OptionLogger(logger))
	info, err := client.StreamerInfo(ctx)
	if err != nil {
		return err, 1
	}

	sess := streamer.NewSession(info, token,
		common.OptionLogger(logger),
		streamer.OptionQueueSize(Options.Queue),
		streamer.OptionDialTimeout(Options.Timeout),
		streamer.OptionLoginTimeout(Options.Timeout),
		streamer.OptionIdleTimeout(Options.Idle))

	sig := terminate.NewSignal()
	terminate.BindOSSignals(sig)
	if restore, err := terminate.BindKeyboard(sig, 'q'); err == nil {
		defer restore()
	}

	quotes := sess.Quotes()
	if err := sess.Start(ctx); err != nil {
		return err, 1
	}
	if err := sess.SubscribeEquities(symbols); err != nil {
		return err, 1
	}

	w := syncio.NewStringWriter(os.Stdout)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		QuotesLoop(quotes, w)
		cancel()
		return nil
	})
	g.Go(func() error {
		if err := sig.Wait(gctx); err == nil {
			cancel()
		}
		return nil
	})
	g.Wait()

	return nil, 0
}

func main() {
	err, ret := run()
	if err != nil {
		stderr.Println("Error:", err)
	}
	if ret != 0 {
		os.Exit(ret)
	}
}
