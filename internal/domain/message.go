package domain

import "time"

// Message is one conversation message. Channel is the logical conversation
// scope: a circle id for group chat or a stable pairing of two user ids for
// direct messages.
type Message struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// DirectChannel derives the channel id for a direct conversation between two
// users. It is order-independent so both peers land on the same channel.
func DirectChannel(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return "dm:" + userA + ":" + userB
}

// CircleChannel derives the channel id for a group circle.
func CircleChannel(circleID string) string {
	return "circle:" + circleID
}
