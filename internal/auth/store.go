package auth

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"
)

// TimeLayout is the minute-precision format tokens are stamped with, both
// on disk and for freshness comparisons.
const TimeLayout = "2006-01-02 15:04"

const (
	accessTokenTTL  = 30 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// TokenData is the persisted credential record.
type TokenData struct {
	AccessToken    string
	AccessCreated  time.Time
	RefreshToken   string
	RefreshCreated time.Time
}

// Minute truncates t to minute precision in the layout's frame of
// reference, so it compares consistently with timestamps parsed from disk.
func Minute(t time.Time) time.Time {
	m, _ := time.Parse(TimeLayout, t.Format(TimeLayout))
	return m
}

// AccessValid reports whether the access token is younger than 30 minutes,
// on minute-truncated timestamps. False at exactly 30 minutes.
func (t TokenData) AccessValid(now time.Time) bool {
	if t.AccessToken == "" || t.AccessCreated.IsZero() {
		return false
	}
	return Minute(now).Sub(t.AccessCreated) < accessTokenTTL
}

// RefreshValid reports whether the refresh token is younger than 7 days.
func (t TokenData) RefreshValid(now time.Time) bool {
	if t.RefreshToken == "" || t.RefreshCreated.IsZero() {
		return false
	}
	return Minute(now).Sub(t.RefreshCreated) < refreshTokenTTL
}

// Store reads and writes the token file. No network, no retries.
type Store struct {
	path string
	log  zerolog.Logger
}

func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{path: path, log: logger}
}

// Load reads the token file. A missing file is not an error: it means no
// credential yet.
func (s *Store) Load() (TokenData, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return TokenData{}, nil
		}
		return TokenData{}, err
	}
	var parser fastjson.Parser
	v, err := parser.ParseBytes(raw)
	if err != nil {
		return TokenData{}, err
	}
	return TokenData{
		AccessToken:    string(v.GetStringBytes("access_token")),
		AccessCreated:  parseStamp(v.GetStringBytes("time_access_token_created")),
		RefreshToken:   string(v.GetStringBytes("refresh_token")),
		RefreshCreated: parseStamp(v.GetStringBytes("time_refresh_token_created")),
	}, nil
}

// Save merges the four token keys into the existing on-disk JSON object,
// preserving unrelated keys. A missing, empty or unparsable file is logged
// and swallowed so a transient persistence hiccup cannot kill a live
// stream.
func (s *Store) Save(data TokenData) error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		s.log.Warn().Str("file", s.path).Msg("token file does not exist")
		return nil
	}
	obj := map[string]interface{}{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		s.log.Warn().Str("file", s.path).Msg("token file is empty")
		return nil
	}
	obj["access_token"] = data.AccessToken
	obj["time_access_token_created"] = data.AccessCreated.Format(TimeLayout)
	obj["refresh_token"] = data.RefreshToken
	obj["time_refresh_token_created"] = data.RefreshCreated.Format(TimeLayout)

	out, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, out, 0600)
}

// parseStamp accepts timestamps with extra precision by keeping only the
// leading minute part.
func parseStamp(b []byte) time.Time {
	s := string(b)
	if len(s) > len(TimeLayout) {
		s = s[:len(TimeLayout)]
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
