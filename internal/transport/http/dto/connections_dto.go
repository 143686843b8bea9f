package dto

type FavoriteRequest struct {
	TargetID  string `json:"target_id"`
	Desired   *bool  `json:"desired"`
	ActorName string `json:"actor_name"`
}

type FavoriteResponse struct {
	AlreadyFavorited bool `json:"already_favorited"`
}

type FriendRequestRequest struct {
	TargetID  string `json:"target_id"`
	ActorName string `json:"actor_name"`
}

type FriendRequestResponse struct {
	AlreadyPending bool `json:"already_pending"`
}

type EventInviteRequest struct {
	TargetID   string `json:"target_id"`
	ActorName  string `json:"actor_name"`
	EventTitle string `json:"event_title"`
}

type EventInviteResponse struct {
	OK bool `json:"ok"`
}

type FavoritesListResponse struct {
	UserIDs []string `json:"user_ids"`
}
