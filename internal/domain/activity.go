package domain

import (
	"time"
)

// ChannelMeta is the per-channel posting metadata kept alongside the channel
// definitions, bumped on every post published into the channel.
type ChannelMeta struct {
	ChannelId  ChannelId `json:"channelId"`
	PostCount  int       `json:"postCount"`
	LastPostAt time.Time `json:"lastPostAt"`
}

// ActivitySample is a point-in-time engagement snapshot, recorded on a fixed
// cadence and kept as a bounded history.
type ActivitySample struct {
	At        time.Time `json:"at"`
	Posts     int       `json:"posts"`
	Comments  int       `json:"comments"`
	Reactions int       `json:"reactions"`
}
