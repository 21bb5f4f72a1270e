package common

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/fatih/structs"
	"github.com/rs/zerolog"
)

type Option func(options interface{}) error

var ErrBadOption = errors.New("bad option")

// SetOption sets the named field of an options struct by reflection.
// Packages build their own options on top of it. Assignment goes through
// reflect so interface-typed fields accept any implementation.
func SetOption(options interface{}, name string, value interface{}) error {
	s := structs.New(options)
	if _, ok := s.FieldOk(name); !ok {
		return ErrBadOption
	}
	field := reflect.ValueOf(options).Elem().FieldByName(name)
	if !field.CanSet() {
		return ErrBadOption
	}
	v := reflect.ValueOf(value)
	if !v.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("%w: cannot set %s", ErrBadOption, name)
	}
	field.Set(v)
	return nil
}

func OptionStdout(stdout Printlnfer) Option {
	return func(options interface{}) error {
		return SetOption(options, "Stdout", stdout)
	}
}

func OptionLogger(logger zerolog.Logger) Option {
	return func(options interface{}) error {
		return SetOption(options, "Logger", logger)
	}
}

func OptionHTTPClient(client *http.Client) Option {
	return func(options interface{}) error {
		return SetOption(options, "HTTPClient", client)
	}
}
