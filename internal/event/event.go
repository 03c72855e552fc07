package event

const (
	AUTHORIZATION_REGISTER               = "authorization.register"
	AUTHORIZATION_LOGIN                  = "authorization.login"
	AUTHORIZATION_REQUEST_PASSWORD_RESET = "authorization.request_password_reset"

	POST_VOTED    = "post.voted"
	COMMENT_VOTED = "comment.voted"
	POLL_VOTED    = "poll.voted"
)

type AuthorizationRegisterMessage struct {
	ID string `json:"id"`
}

type AuthorizationLoginMessage struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	UserAgent string `json:"user_agent"`
	IpAddress string `json:"ip_address"`
}

type AuthorizationRequestPasswordReset struct {
	ID string `json:"id"`
}

// VoteMessage is published after a vote changes a target's points.
type VoteMessage struct {
	TargetID string `json:"target_id"`
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
	UserID   string `json:"user_id"`
	Value    int    `json:"value"`
	Delta    int    `json:"delta"`
	Points   int    `json:"points"`
}

type PollVoteMessage struct {
	PollID   string `json:"poll_id"`
	PostID   string `json:"post_id"`
	OptionID string `json:"option_id"`
	UserID   string `json:"user_id"`
}
