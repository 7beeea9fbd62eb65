package soundbig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	humanize "github.com/dustin/go-humanize"
	"github.com/toksikk/soundbig/internal/datastore"
	"github.com/toksikk/soundbig/internal/soundboard"
	"github.com/toksikk/soundbig/internal/util"
)

const (
	colorBlue  = 0x3498db
	colorGreen = 0x2ecc71
	colorRed   = 0xe74c3c

	// four rows of sound buttons, the fifth row holds the action button
	maxSoundButtons    = 20
	maxComboButtons    = 25
	maxEmbedFields     = 25
	maxLabelLen        = 80
	buttonsPerRow      = 5
	listSoundChunkSize = 5
)

const (
	msgGuildOnly   = "❌ This command can only be used in a server."
	msgNoSounds    = "❌ No soundboard sounds found in this server!\n\n**To add soundboard sounds:**\n1. Go to your Discord server settings\n2. Navigate to **Soundboard** (or Audio)\n3. Add sounds to your server's soundboard\n4. Try `/soundboard` again"
	msgNoCombos    = "❌ No soundboard combinations found in this server."
	msgNoCombosYet = "❌ No soundboard combinations found in this server yet."
	msgNoVoice     = "You must be in a voice channel (or move the bot first)."
	msgNotFound    = "Sound not found."
	msgStarting    = "Starting queue playback..."
	msgBusy        = "The queue is already playing, new sounds are picked up automatically."
	msgEmptyQueue  = "The queue is empty. Add sounds with the buttons first."
	msgVoiceFailed = "❌ Could not join your voice channel."
	msgDraftGone   = "This combination draft expired. Run `/create_combination` again."
	msgSaveFailed  = "Failed to save combination."
	msgLoadFailed  = "❌ Could not load combinations, please try again later."
	msgComboGone   = "This combination does not exist anymore."
)

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func queuedMessage(name string, position int) string {
	return fmt.Sprintf("**%s** added to queue → position **%d**\nQueue size: **%d** sounds", name, position, position)
}

func draftAddedMessage(sound, combination string, position int) string {
	return fmt.Sprintf("**%s** added to **%s** → position **%d**\nCombination size: **%d** sounds", sound, combination, position, position)
}

func nameTakenMessage(name string) string {
	return fmt.Sprintf("❌ A combination with the name **%s** already exists. Please choose a different name.", name)
}

// bulletFields renders one "• name" field per entry, capped at the embed limit.
func bulletFields(names []string) []*discordgo.MessageEmbedField {
	fields := make([]*discordgo.MessageEmbedField, 0, len(names))
	for i, n := range names {
		if i == maxEmbedFields-1 && len(names) > maxEmbedFields {
			fields = append(fields, &discordgo.MessageEmbedField{
				Name:  " ",
				Value: fmt.Sprintf("… and %d more", len(names)-i),
			})
			break
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: " ", Value: "• " + n})
	}
	return fields
}

func soundNames(sounds []soundboard.Sound) []string {
	names := make([]string, len(sounds))
	for i, s := range sounds {
		names[i] = s.Name
	}
	return names
}

func soundboardEmbed(catalog *soundboard.Catalog) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🎵 Server Soundboard",
		Description: fmt.Sprintf("Available sounds: %d", catalog.Len()),
		Color:       colorBlue,
		Fields:      bulletFields(soundNames(catalog.Sounds())),
	}
}

func rows(buttons []discordgo.MessageComponent) []discordgo.MessageComponent {
	var out []discordgo.MessageComponent
	for start := 0; start < len(buttons); start += buttonsPerRow {
		end := start + buttonsPerRow
		if end > len(buttons) {
			end = len(buttons)
		}
		out = append(out, discordgo.ActionsRow{Components: buttons[start:end]})
	}
	return out
}

func soundButtons(sounds []soundboard.Sound, id func(soundboard.Sound) string) []discordgo.MessageComponent {
	if len(sounds) > maxSoundButtons {
		sounds = sounds[:maxSoundButtons]
	}
	buttons := make([]discordgo.MessageComponent, 0, len(sounds))
	for _, s := range sounds {
		buttons = append(buttons, discordgo.Button{
			Label:    util.Truncate(s.Name, maxLabelLen),
			Style:    discordgo.PrimaryButton,
			Emoji:    s.Emoji(),
			CustomID: id(s),
		})
	}
	return rows(buttons)
}

// soundboardComponents has one button per sound that queues it and a play button.
func soundboardComponents(catalog *soundboard.Catalog) []discordgo.MessageComponent {
	components := soundButtons(catalog.Sounds(), func(s soundboard.Sound) string {
		return customID(actionQueue, s.ID)
	})
	return append(components, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "▶️ Play Queue",
			Style:    discordgo.SuccessButton,
			CustomID: customID(actionPlayQueue),
		},
	}})
}

// draftComponents has one button per sound that adds it to the draft and a save button.
func draftComponents(catalog *soundboard.Catalog, draftID string) []discordgo.MessageComponent {
	components := soundButtons(catalog.Sounds(), func(s soundboard.Sound) string {
		return customID(actionDraftAdd, draftID, s.ID)
	})
	return append(components, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "💾 Save Combination",
			Style:    discordgo.SuccessButton,
			CustomID: customID(actionDraftSave, draftID),
		},
	}})
}

func draftEmbed(catalog *soundboard.Catalog, name string) *discordgo.MessageEmbed {
	embed := soundboardEmbed(catalog)
	embed.Title = "🎛️ New Combination: " + util.Truncate(name, maxLabelLen)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Click sounds in the order they should play, then save."}
	return embed
}

// listSoundsEmbed groups the sound names in fields of five.
func listSoundsEmbed(catalog *soundboard.Catalog) *discordgo.MessageEmbed {
	names := soundNames(catalog.Sounds())
	embed := &discordgo.MessageEmbed{
		Title:       "📊 Server Soundboard Sounds",
		Description: fmt.Sprintf("Total: %d", len(names)),
		Color:       colorGreen,
	}
	for start := 0; start < len(names) && len(embed.Fields) < maxEmbedFields; start += listSoundChunkSize {
		end := start + listSoundChunkSize
		if end > len(names) {
			end = len(names)
		}
		lines := make([]string, 0, end-start)
		for _, n := range names[start:end] {
			lines = append(lines, "`"+n+"`")
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Sounds %d-%d", start+1, end),
			Value: strings.Join(lines, "\n"),
		})
	}
	return embed
}

func combinationNames(combinations []datastore.Combination) []string {
	names := make([]string, len(combinations))
	for i, c := range combinations {
		names[i] = c.Name
	}
	return names
}

func listCombinationsEmbed(combinations []datastore.Combination, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "📋 Server Soundboard Combinations",
		Description: fmt.Sprintf("Total: %d", len(combinations)),
		Color:       colorGreen,
	}
	for i, c := range combinations {
		if i == maxEmbedFields {
			break
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "• " + c.Name,
			Value: fmt.Sprintf("%s, created %s", plural(len(c.Sounds), "sound"), humanize.RelTime(c.CreatedAt, now, "ago", "from now")),
		})
	}
	return embed
}

func combinationButtons(combinations []datastore.Combination, action string, style discordgo.ButtonStyle) []discordgo.MessageComponent {
	if len(combinations) > maxComboButtons {
		combinations = combinations[:maxComboButtons]
	}
	buttons := make([]discordgo.MessageComponent, 0, len(combinations))
	for _, c := range combinations {
		buttons = append(buttons, discordgo.Button{
			Label:    util.Truncate(c.Name, maxLabelLen),
			Style:    style,
			CustomID: customID(action, strconv.FormatUint(uint64(c.ID), 10)),
		})
	}
	return rows(buttons)
}

func deleteCombinationsView(combinations []datastore.Combination) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := &discordgo.MessageEmbed{
		Title:       "🗑️ Delete Soundboard Combinations",
		Description: fmt.Sprintf("Total: %d", len(combinations)),
		Color:       colorRed,
		Fields:      bulletFields(combinationNames(combinations)),
	}
	return embed, combinationButtons(combinations, actionDelete, discordgo.DangerButton)
}

func playCombinationsView(combinations []datastore.Combination) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := &discordgo.MessageEmbed{
		Title:       "🎵 Combinations soundboard",
		Description: fmt.Sprintf("Available combinations: %d", len(combinations)),
		Color:       colorBlue,
		Fields:      bulletFields(combinationNames(combinations)),
	}
	return embed, combinationButtons(combinations, actionPlayCombo, discordgo.PrimaryButton)
}
