// Package invite builds watch-party invites and the media-reference
// encoding used in join links.
package invite

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/vibechat/vibe-server/internal/domain"
)

// TypeRoomInvite tags the payload inside an ordinary direct message so the
// durable chat channel carries it unchanged.
const TypeRoomInvite = "room-invite"

// Payload rides in a direct-message body. The message store persists it
// like any other message; only producers and consumers know the shape.
type Payload struct {
	Type     string        `json:"type"`
	FromID   domain.UserID `json:"from_id"`
	FromName string        `json:"from_name"`
	ToID     domain.UserID `json:"to_id"`
	MediaRef string        `json:"media_ref"`
	RoomID   domain.RoomID `json:"room_id"`
}

// Build is a pure constructor; delivery is the caller's job.
func Build(fromID domain.UserID, fromName string, toID domain.UserID, mediaRef string, room domain.RoomID) Payload {
	return Payload{
		Type:     TypeRoomInvite,
		FromID:   fromID,
		FromName: fromName,
		ToID:     toID,
		MediaRef: mediaRef,
		RoomID:   room,
	}
}

// EncodeMediaRef makes a media reference safe for a join-link query value.
// Percent-encoding first keeps the base64 input ASCII, so arbitrary
// characters ('&', '?', '#', non-ASCII) survive the round trip.
func EncodeMediaRef(ref string) string {
	return base64.StdEncoding.EncodeToString([]byte(url.QueryEscape(ref)))
}

// DecodeMediaRef reverses EncodeMediaRef. Corrupted input yields an empty
// reference, never an error: the joiner then waits for the host's link.
func DecodeMediaRef(enc string) string {
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return ""
	}
	ref, err := url.QueryUnescape(string(raw))
	if err != nil {
		return ""
	}
	return ref
}

// JoinLink renders the client path for a room, media reference included.
func JoinLink(room domain.RoomID, mediaRef string) string {
	return fmt.Sprintf("/party/%s?v=%s", room, url.QueryEscape(EncodeMediaRef(mediaRef)))
}
