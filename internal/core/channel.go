package core

import "strconv"

// Channels are logical broadcast groups: every user has a private mailbox
// channel, every group a shared room channel.

// UserChannel returns the private channel name for a user.
func UserChannel(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// GroupChannel returns the shared channel name for a group.
func GroupChannel(groupID int64) string {
	return "group:" + strconv.FormatInt(groupID, 10)
}
