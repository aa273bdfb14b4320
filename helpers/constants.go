package helpers

// UserIDHeader carries the id of the caller authenticated by the upstream gateway.
const UserIDHeader = "X-User-ID"

const (
	DefaultUpcomingLimit = 10
	MaxUpcomingLimit     = 100
)

const DateLayout = "2006-01-02"
