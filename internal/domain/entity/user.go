package entity

import (
	"strings"
	"time"
)

type User struct {
	UID         string    `json:"uid" firestore:"uid"`
	Email       string    `json:"email" firestore:"email"`
	DisplayName string    `json:"display_name" firestore:"displayName"`
	Avatar      string    `json:"avatar,omitempty" firestore:"avatar,omitempty"`
	IsOnline    bool      `json:"is_online" firestore:"isOnline"`
	LastSeen    time.Time `json:"last_seen" firestore:"lastSeen"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}

// DisplayNameFromEmail derives a display name from the local part of an email.
func DisplayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// RecentlyActive reports whether the user was seen within window of now.
func (u *User) RecentlyActive(now time.Time, window time.Duration) bool {
	if u.LastSeen.IsZero() {
		return false
	}
	return now.Sub(u.LastSeen) <= window
}

func (u *User) StatusText(now time.Time) string {
	switch {
	case u.IsOnline:
		return "Online"
	case u.RecentlyActive(now, 5*time.Minute):
		return "Recently active"
	default:
		return "Offline"
	}
}
