package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/server-warden/internal/gateway"
)

// mapError folds REST failures into the gateway taxonomy so callers can match
// with errors.Is. Anything unrecognised is returned wrapped with op.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeUnknownMessage,
			discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser,
			discordgo.ErrCodeUnknownGuild:
			return fmt.Errorf("%s: %w: %s", op, gateway.ErrNotFound, restErr.Message.Message)
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess,
			discordgo.ErrCodeCannotSendMessagesToThisUser:
			return fmt.Errorf("%s: %w: %s", op, gateway.ErrPermissionDenied, restErr.Message.Message)
		}
	}
	if restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, gateway.ErrNotFound)
		case http.StatusForbidden:
			return fmt.Errorf("%s: %w", op, gateway.ErrPermissionDenied)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
