package screens

import (
	"time"

	"avara_app/models"
)

// groupWindow is the maximum gap between two messages of the same sender for
// them to render as one burst.
const groupWindow = 5 * time.Minute

// groupsWith reports whether two adjacent messages belong to the same burst:
// same sender and less than groupWindow apart.
func groupsWith(a, b models.ChatMessage) bool {
	gap := b.CreatedAt.Sub(a.CreatedAt)
	if gap < 0 {
		gap = -gap
	}
	return a.IsMe == b.IsMe && gap < groupWindow
}

// GroupMessages classifies every message's position within a same-sender
// burst and sets the avatar/timestamp render hints. The input must be sorted
// ascending by time; the result is a copy, the raw list is never mutated.
//
// The first message of a burst shows avatar and timestamp; any message that
// groups with its predecessor (middle, last) suppresses both.
func GroupMessages(messages []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, len(messages))
	copy(out, messages)

	for i := range out {
		withPrev := i > 0 && groupsWith(out[i-1], out[i])
		withNext := i < len(out)-1 && groupsWith(out[i], out[i+1])

		switch {
		case withPrev && withNext:
			out[i].GroupPosition = models.GroupMiddle
		case withPrev:
			out[i].GroupPosition = models.GroupLast
		case withNext:
			out[i].GroupPosition = models.GroupFirst
		default:
			out[i].GroupPosition = models.GroupSingle
		}

		show := !withPrev
		out[i].ShowAvatar = show
		out[i].ShowTime = show
	}
	return out
}

// ChatRow is one renderable line of the conversation: either a day separator
// or a message.
type ChatRow struct {
	IsSeparator bool
	Day         time.Time
	Message     models.ChatMessage
}

// sameCalendarDay compares by year/month/day only, not a rolling 24h window.
func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// BuildRows groups the messages and inserts a day separator before the first
// message of each new calendar day. The day boundary always gets a separator,
// even when the surrounding messages are close enough to group.
func BuildRows(messages []models.ChatMessage) []ChatRow {
	grouped := GroupMessages(messages)

	rows := make([]ChatRow, 0, len(grouped)+4)
	for i, msg := range grouped {
		if i == 0 || !sameCalendarDay(grouped[i-1].CreatedAt, msg.CreatedAt) {
			rows = append(rows, ChatRow{IsSeparator: true, Day: msg.CreatedAt})
		}
		rows = append(rows, ChatRow{Message: msg})
	}
	return rows
}
