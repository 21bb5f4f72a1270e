package main

import (
	"context"
	"io"
	stdlog "log"
	"os"

	flag "github.com/spf13/pflag"

	"levelone/internal/auth"
	"levelone/internal/common"
	"levelone/internal/config"
	"levelone/internal/marketdata"
	"levelone/internal/mainutil"
)

var (
	stdout = stdlog.New(os.Stdout, "", 0)
	stderr = stdlog.New(os.Stderr, "", stdlog.Ltime|stdlog.Lmicroseconds)
)

var Options struct {
	Env           string
	History       bool
	Hours         string
	PeriodType    string
	Period        int `traits:"ge=1"`
	FrequencyType string
	Frequency     int `traits:"ge=1"`
	Extended      bool
	PrevClose     bool
	Help          bool
}

var flags flag.FlagSet

func init() {
	flags.StringVarP(&Options.Env, "env", "e", "", "env file")
	flags.BoolVarP(&Options.History, "history", "", false, "price history for one symbol")
	flags.StringVarP(&Options.Hours, "hours", "", "", "market hours for a market")
	flags.StringVarP(&Options.PeriodType, "period-type", "", "year", "history period type")
	flags.IntVarP(&Options.Period, "period", "", 1, "history period")
	flags.StringVarP(&Options.FrequencyType, "frequency-type", "", "daily", "history frequency type")
	flags.IntVarP(&Options.Frequency, "frequency", "", 1, "history frequency")
	flags.BoolVarP(&Options.Extended, "extended", "", false, "include extended hours data")
	flags.BoolVarP(&Options.PrevClose, "prev-close", "", false, "include previous close")
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
	if Options.Hours == "" && flags.NArg() == 0 {
		stderr.Print("Symbols?")
		return nil, 1
	}

	cfg, err := config.Load(Options.Env)
	if err != nil {
		return err, 1
	}

	ctx := context.Background()
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
	}, common.OptionStdout(stdout))

	token, err := creds.Token(ctx)
	if err != nil {
		return err, 1
	}
	client := marketdata.NewClient(token)

	var body []byte
	switch {
	case Options.Hours != "":
		body, err = client.MarketHours(ctx, Options.Hours)
	case Options.History:
		body, err = client.PriceHistory(ctx, marketdata.HistoryRequest{
			Symbol:        flags.Arg(0),
			PeriodType:    Options.PeriodType,
			Period:        Options.Period,
			FrequencyType: Options.FrequencyType,
			Frequency:     Options.Frequency,
			ExtendedHours: Options.Extended,
			PreviousClose: Options.PrevClose,
		})
	default:
		body, err = client.Quotes(ctx, flags.Args())
	}
	if err != nil {
		return err, 1
	}
	stdout.Print(string(body))

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
