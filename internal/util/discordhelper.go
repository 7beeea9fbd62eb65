package util

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// GetGuildName returns the name of a guild, preferring the state cache
func GetGuildName(discordSession *discordgo.Session, guildID string) string {
	if guild, err := discordSession.State.Guild(guildID); err == nil {
		return guild.Name
	}
	guild, err := discordSession.Guild(guildID)
	if err != nil {
		slog.Warn("Error while getting guild", "error", err)
		return guildID
	}
	return guild.Name
}

// GetChannelName returns the name of a channel
func GetChannelName(discordSession *discordgo.Session, channelID string) string {
	if channel, err := discordSession.State.Channel(channelID); err == nil {
		return channel.Name
	}
	channel, err := discordSession.Channel(channelID)
	if err != nil {
		slog.Warn("Error while getting channel", "error", err)
		return channelID
	}
	return channel.Name
}

// InteractionUser returns the invoking user, for guild and direct message interactions
func InteractionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// GetCurrentVoiceChannel returns the voice channel id the user is connected
// to inside the guild, or "" if the user is not in voice.
func GetCurrentVoiceChannel(state *discordgo.State, guildID, userID string) string {
	vs, err := state.VoiceState(guildID, userID)
	if err != nil || vs == nil {
		return ""
	}
	return vs.ChannelID
}
