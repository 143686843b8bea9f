package enums

type ConnectionType string

const (
	ConnectionTypeFavorite      ConnectionType = "favorite"
	ConnectionTypeFriendRequest ConnectionType = "friend_request"
)

type ConnectionStatus string

const (
	ConnectionStatusActive   ConnectionStatus = "active"
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusResolved ConnectionStatus = "resolved"
)
