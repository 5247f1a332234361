package auth

import (
	"github.com/ZJUSCT/rankboard/internal/config"
	"github.com/ZJUSCT/rankboard/internal/database/models"
)

// IsModerator reports whether actor may post problems and score submissions
// in track. With no moderator role configured, manage_messages suffices.
func IsModerator(actor Actor, mod config.Moderation, track models.Track) bool {
	role := mod.RoleFor(track)
	if role == 0 {
		return actor.ManageMessages
	}
	for _, r := range actor.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAnyModerator reports whether actor moderates at least one track.
func IsAnyModerator(actor Actor, mod config.Moderation) bool {
	for _, track := range models.Tracks {
		if IsModerator(actor, mod, track) {
			return true
		}
	}
	return false
}
