// Package model defines the data types shared across every JMS service:
// arena state, match records, scores, rankings, driver-station reports,
// and the readiness-hook protocol. Every type here is a plain struct
// with JSON tags — it is what travels over the fabric's KV store and
// bus, never an in-process pointer shared between services.
package model

import (
	"encoding/json"
	"time"
)

// Millis wire-encodes a time.Time as milliseconds since the Unix epoch,
// matching the spec's "time is wire-encoded as milliseconds since the
// Unix epoch" convention.
type Millis time.Time

func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(m).UnixMilli())
}

func (m *Millis) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	*m = Millis(time.UnixMilli(ms))
	return nil
}

func (m Millis) Time() time.Time { return time.Time(m) }

func NowMillis() Millis { return Millis(time.Now()) }

// DurationMillis wire-encodes a time.Duration as signed milliseconds.
type DurationMillis time.Duration

func (d DurationMillis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

func (d *DurationMillis) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	*d = DurationMillis(time.Duration(ms) * time.Millisecond)
	return nil
}

func (d DurationMillis) Duration() time.Duration { return time.Duration(d) }

func Millisf(d time.Duration) DurationMillis { return DurationMillis(d) }
