package domain

type ChannelID int64

// Server groups channels under a single invite-joinable namespace.
type Server struct {
	ID         int64
	Name       string
	InviteCode string
}

// Channel is the unit of message addressing and subscription.
type Channel struct {
	ID       ChannelID
	ServerID int64
	Name     string
}
