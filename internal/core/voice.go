package soundbig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/toksikk/soundbig/internal/playback"
	"github.com/toksikk/soundbig/internal/soundboard"
	"github.com/toksikk/soundbig/internal/util"
)

var errNoVoiceChannel = errors.New("no voice channel")

// voiceOutput sends soundboard sounds into the channel of a voice connection.
type voiceOutput struct {
	requester soundboard.Requester
	vc        *discordgo.VoiceConnection
	channelID string
}

func (v *voiceOutput) Emit(ctx context.Context, s soundboard.Sound) error {
	return soundboard.Send(ctx, v.requester, v.channelID, s)
}

func (v *voiceOutput) Release() error {
	return v.vc.Disconnect()
}

// targetVoiceChannel picks the channel of the user, or the one the bot is
// already in.
func (b *Bot) targetVoiceChannel(guildID, userID string) (string, error) {
	if channelID := util.GetCurrentVoiceChannel(b.session.State, guildID, userID); channelID != "" {
		return channelID, nil
	}
	if b.session.State.User != nil {
		if channelID := util.GetCurrentVoiceChannel(b.session.State, guildID, b.session.State.User.ID); channelID != "" {
			return channelID, nil
		}
	}
	return "", errNoVoiceChannel
}

// openVoice joins the channel undeafened, the platform refuses soundboard
// sounds from deafened members.
func (b *Bot) openVoice(guildID, channelID string) (playback.Output, error) {
	slog.Info("Joining voice channel", "guild", util.GetGuildName(b.session, guildID), "channel", util.GetChannelName(b.session, channelID))
	vc, err := b.session.ChannelVoiceJoin(guildID, channelID, false, false)
	if err != nil {
		if vc != nil {
			vc.Disconnect() // nolint:errcheck
		}
		return nil, fmt.Errorf("could not join voice channel %s: %w", channelID, err)
	}
	return &voiceOutput{requester: b.session, vc: vc, channelID: channelID}, nil
}
