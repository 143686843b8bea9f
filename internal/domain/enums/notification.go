package enums

type NotificationCategory string

const (
	NotificationSocialFavorited     NotificationCategory = "social_favorited"
	NotificationSocialFriendRequest NotificationCategory = "social_friend_request"
	NotificationSocialEventInvite   NotificationCategory = "social_event_invite"
)

type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSent    DeliveryStatus = "sent"
	DeliveryStatusFailed  DeliveryStatus = "failed"
)
