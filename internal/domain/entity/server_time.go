package entity

import "time"

// ServerTime is a timestamp assigned by the store at commit. Until the write
// is observed back from the store it carries a local placeholder and Pending
// is true.
type ServerTime struct {
	Time    time.Time `json:"time"`
	Pending bool      `json:"pending,omitempty"`
}

func PendingServerTime(local time.Time) ServerTime {
	return ServerTime{Time: local, Pending: true}
}

func CommittedServerTime(t time.Time) ServerTime {
	return ServerTime{Time: t}
}

