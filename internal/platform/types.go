// Package platform defines the chat platform's wire types and the
// outbound client used to post messages back.
package platform

// Update is one inbound webhook event. Exactly one of the payload
// fields is set.
type Update struct {
	UpdateID          int64             `json:"update_id"`
	Message           *Message          `json:"message,omitempty"`
	EditedMessage     *Message          `json:"edited_message,omitempty"`
	ChannelPost       *Message          `json:"channel_post,omitempty"`
	EditedChannelPost *Message          `json:"edited_channel_post,omitempty"`
	MyChatMember      *ChatMemberUpdate `json:"my_chat_member,omitempty"`
}

// Message is a chat message or channel post.
type Message struct {
	ID      int64    `json:"message_id"`
	From    *User    `json:"from,omitempty"`
	Chat    Chat     `json:"chat"`
	Text    string   `json:"text,omitempty"`
	Caption string   `json:"caption,omitempty"`
	ReplyTo *Message `json:"reply_to_message,omitempty"`
}

// Chat types.
const (
	ChatTypePrivate    = "private"
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
	ChatTypeChannel    = "channel"
)

type Chat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
}

type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot,omitempty"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Membership statuses.
const (
	MemberStatusCreator       = "creator"
	MemberStatusAdministrator = "administrator"
	MemberStatusMember        = "member"
	MemberStatusRestricted    = "restricted"
	MemberStatusLeft          = "left"
	MemberStatusKicked        = "kicked"
)

// ChatMemberUpdate reports the bot's own membership changing in a chat.
type ChatMemberUpdate struct {
	Chat          Chat       `json:"chat"`
	From          User       `json:"from"`
	OldChatMember ChatMember `json:"old_chat_member"`
	NewChatMember ChatMember `json:"new_chat_member"`
}

type ChatMember struct {
	User   User   `json:"user"`
	Status string `json:"status"`
}

// Kind reports which payload the update carries.
func (u *Update) Kind() string {
	switch {
	case u == nil:
		return "unknown"
	case u.Message != nil:
		return "message"
	case u.EditedMessage != nil:
		return "edited_message"
	case u.ChannelPost != nil:
		return "channel_post"
	case u.EditedChannelPost != nil:
		return "edited_channel_post"
	case u.MyChatMember != nil:
		return "my_chat_member"
	default:
		return "unknown"
	}
}
