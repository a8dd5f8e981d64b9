// Copyright (c) 2025 Neomantra Corp

package alphastore

import (
	"time"

	"github.com/neomantra/ymdflag"
)

// InstantUtc is a minute-aligned UTC timestamp (spec §3).
type InstantUtc struct {
	t time.Time
}

// NewInstantUtc aligns t to the minute and converts it to UTC.
func NewInstantUtc(t time.Time) InstantUtc {
	u := t.UTC()
	return InstantUtc{t: time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), 0, 0, time.UTC)}
}

// ParseInstantUtc parses an RFC3339 timestamp and validates that it is
// already minute-aligned, returning InvalidArgument otherwise (spec
// §7: "non-minute-aligned timestamp").
func ParseInstantUtc(s string) (InstantUtc, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return InstantUtc{}, invalidArgumentf("bad timestamp %q: %s", s, err)
	}
	u := t.UTC()
	if u.Second() != 0 || u.Nanosecond() != 0 {
		return InstantUtc{}, invalidArgumentf("timestamp %q is not minute-aligned", s)
	}
	return InstantUtc{t: u}, nil
}

func (i InstantUtc) Time() time.Time { return i.t }
func (i InstantUtc) IsZero() bool    { return i.t.IsZero() }
func (i InstantUtc) String() string  { return i.t.Format(time.RFC3339) }

func (i InstantUtc) Before(other InstantUtc) bool        { return i.t.Before(other.t) }
func (i InstantUtc) After(other InstantUtc) bool         { return i.t.After(other.t) }
func (i InstantUtc) Equal(other InstantUtc) bool         { return i.t.Equal(other.t) }
func (i InstantUtc) BeforeOrEqual(other InstantUtc) bool { return !i.t.After(other.t) }

func (i InstantUtc) AddMinutes(n int) InstantUtc {
	return InstantUtc{t: i.t.Add(time.Duration(n) * time.Minute)}
}

// SessionDate returns the exchange-local (treated as UTC civil date,
// spec §3) trading day this instant falls within.
func (i InstantUtc) SessionDate() SessionDate {
	return SessionDate{t: time.Date(i.t.Year(), i.t.Month(), i.t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (i InstantUtc) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.String() + `"`), nil
}

func (i *InstantUtc) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseInstantUtc(s)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// SessionDate is a civil date in the exchange-local calendar (spec §3).
// Stored as days-since-epoch per spec §4.4.
type SessionDate struct {
	t time.Time
}

func NewSessionDate(year int, month time.Month, day int) SessionDate {
	return SessionDate{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseSessionDate parses "YYYY-MM-DD".
func ParseSessionDate(s string) (SessionDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return SessionDate{}, invalidArgumentf("bad session date %q: %s", s, err)
	}
	return SessionDate{t: t}, nil
}

func (d SessionDate) Time() time.Time { return d.t }
func (d SessionDate) IsZero() bool    { return d.t.IsZero() }
func (d SessionDate) String() string  { return d.t.Format("2006-01-02") }
func (d SessionDate) Year() int       { return d.t.Year() }
func (d SessionDate) Month() int      { return int(d.t.Month()) }
func (d SessionDate) Day() int        { return d.t.Day() }
func (d SessionDate) Weekday() time.Weekday {
	return d.t.Weekday()
}

func (d SessionDate) Before(other SessionDate) bool { return d.t.Before(other.t) }
func (d SessionDate) After(other SessionDate) bool   { return d.t.After(other.t) }
func (d SessionDate) Equal(other SessionDate) bool   { return d.t.Equal(other.t) }

func (d SessionDate) AddDays(n int) SessionDate {
	return SessionDate{t: d.t.AddDate(0, 0, n)}
}

// DaysSinceEpoch is the on-disk representation required by spec §4.4.
func (d SessionDate) DaysSinceEpoch() int32 {
	return int32(d.t.Unix() / 86400)
}

func SessionDateFromDaysSinceEpoch(days int32) SessionDate {
	return SessionDate{t: time.Unix(int64(days)*86400, 0).UTC()}
}

// DTE computes Expiry - SessionDate in whole calendar days (GLOSSARY).
func DTE(expiry, session SessionDate) int {
	return int(expiry.DaysSinceEpoch() - session.DaysSinceEpoch())
}

func (d SessionDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *SessionDate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseSessionDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeToYMD returns the YYYYMMDD integer for t in UTC, matching the
// convention neomantra/ymdflag uses for CLI date flags.
func TimeToYMD(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	return uint32(ymdflag.TimeToYMD(t.UTC()))
}

// YMDToSessionDate converts a YYYYMMDD integer (as produced by ymdflag
// CLI parsing) into a SessionDate.
func YMDToSessionDate(ymd int) SessionDate {
	year := ymd / 10000
	month := (ymd / 100) % 100
	day := ymd % 100
	return NewSessionDate(year, time.Month(month), day)
}
