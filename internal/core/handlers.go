package soundbig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/toksikk/soundbig/internal/datastore"
	"github.com/toksikk/soundbig/internal/playback"
	"github.com/toksikk/soundbig/internal/soundboard"
	"github.com/toksikk/soundbig/internal/util"
)

const fetchTimeout = 10 * time.Second

// fetchCatalog loads the soundboard of the interaction's guild. Nothing
// outlives the request, every handler works on its own catalog.
func (b *Bot) fetchCatalog(guildID string) (*soundboard.Catalog, error) {
	ctx, cancel := context.WithTimeout(b.ctx, fetchTimeout)
	defer cancel()
	return soundboard.Fetch(ctx, b.session, guildID)
}

// catalogOrReply fetches the catalog and tells the user when there is nothing to show.
func (b *Bot) catalogOrReply(s *discordgo.Session, i *discordgo.InteractionCreate) (*soundboard.Catalog, bool) {
	catalog, err := b.fetchCatalog(i.GuildID)
	if err != nil {
		slog.Error("Error loading soundboard sounds", "guild", i.GuildID, "error", err)
		replyText(s, i, msgNoSounds)
		return nil, false
	}
	if catalog.Len() == 0 {
		slog.Warn("No soundboard sounds found", "guild", i.GuildID)
		replyText(s, i, msgNoSounds)
		return nil, false
	}
	slog.Debug("Loaded soundboard sounds", "guild", i.GuildID, "count", catalog.Len())
	return catalog, true
}

func optionString(i *discordgo.InteractionCreate, name string) string {
	if opt := i.ApplicationCommandData().GetOption(name); opt != nil {
		return strings.TrimSpace(opt.StringValue())
	}
	return ""
}

func (b *Bot) handleSoundboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// a fresh soundboard starts a fresh queue, unless it is being played right now
	if !b.queues.Draining(i.GuildID) {
		b.queues.Reset(i.GuildID)
	}

	catalog, ok := b.catalogOrReply(s, i)
	if !ok {
		return
	}
	replyEmbed(s, i, soundboardEmbed(catalog), soundboardComponents(catalog))
}

func (b *Bot) handleListSounds(s *discordgo.Session, i *discordgo.InteractionCreate) {
	catalog, ok := b.catalogOrReply(s, i)
	if !ok {
		return
	}
	replyEmbed(s, i, listSoundsEmbed(catalog), nil)
}

func (b *Bot) handlePlaySound(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := optionString(i, "sound")
	catalog, ok := b.catalogOrReply(s, i)
	if !ok {
		return
	}
	sound, ok := catalog.ByName(name)
	if !ok {
		replyText(s, i, msgNotFound)
		return
	}

	user := util.InteractionUser(i.Interaction)
	channelID, err := b.targetVoiceChannel(i.GuildID, user.ID)
	if err != nil {
		replyText(s, i, msgNoVoice)
		return
	}

	position := b.queues.Enqueue(i.GuildID, sound)
	slog.Info("Queued sound", "user", user.Username, "sound", sound, "guild", i.GuildID, "position", position)

	if !deferReply(s, i) {
		return
	}
	editReplyText(s, i, queuedMessage(sound.Name, position)+"\n"+b.startPlayback(i.GuildID, channelID))
}

func (b *Bot) handlePlaySoundAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Focused {
			query = opt.StringValue()
		}
	}

	catalog, err := b.fetchCatalog(i.GuildID)
	if err != nil {
		slog.Warn("Could not load sounds for autocomplete", "guild", i.GuildID, "error", err)
		replyChoices(s, i, nil)
		return
	}

	matches := catalog.Search(query, maxAutocompleteChoices)
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(matches))
	for _, m := range matches {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  util.Truncate(m.Name, 100),
			Value: m.Name,
		})
	}
	replyChoices(s, i, choices)
}

func (b *Bot) handleQueueButton(s *discordgo.Session, i *discordgo.InteractionCreate, args []string) {
	catalog, err := b.fetchCatalog(i.GuildID)
	if err != nil {
		slog.Error("Error loading soundboard sounds", "guild", i.GuildID, "error", err)
		replyText(s, i, msgNoSounds)
		return
	}
	sound, ok := catalog.ByID(args[0])
	if !ok {
		replyText(s, i, msgNotFound)
		return
	}

	position := b.queues.Enqueue(i.GuildID, sound)
	replyText(s, i, queuedMessage(sound.Name, position))
}

func (b *Bot) handlePlayQueueButton(s *discordgo.Session, i *discordgo.InteractionCreate, _ []string) {
	if b.queues.Draining(i.GuildID) {
		replyText(s, i, msgBusy)
		return
	}
	if b.queues.Len(i.GuildID) == 0 {
		replyText(s, i, msgEmptyQueue)
		return
	}

	channelID, err := b.targetVoiceChannel(i.GuildID, util.InteractionUser(i.Interaction).ID)
	if err != nil {
		replyText(s, i, msgNoVoice)
		return
	}

	if !deferReply(s, i) {
		return
	}
	editReplyText(s, i, b.startPlayback(i.GuildID, channelID))
}

// startPlayback joins the voice channel and drains the guild queue in the
// background. It returns the message for the user.
func (b *Bot) startPlayback(guildID, channelID string) string {
	started, err := b.queues.Start(b.ctx, guildID, func() (playback.Output, error) {
		return b.openVoice(guildID, channelID)
	})
	if err != nil {
		slog.Error("Could not start queue playback", "guild", guildID, "channel", channelID, "error", err)
		return msgVoiceFailed
	}
	if !started {
		return msgBusy
	}
	slog.Info("Started queue playback", "guild", guildID, "queued", b.queues.Len(guildID))
	return msgStarting
}

func (b *Bot) handleCreateCombination(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := optionString(i, "name")
	if name == "" {
		replyText(s, i, "❌ Please give the combination a name.")
		return
	}

	taken, err := b.store.Exists(i.GuildID, name)
	if err != nil {
		slog.Error("Error checking combination name", "guild", i.GuildID, "name", name, "error", err)
		replyText(s, i, msgLoadFailed)
		return
	}
	if taken {
		replyText(s, i, nameTakenMessage(name))
		return
	}

	catalog, ok := b.catalogOrReply(s, i)
	if !ok {
		return
	}

	d := b.drafts.create(i.GuildID, name)
	slog.Debug("Started combination draft", "guild", i.GuildID, "name", name, "draft", d.ID)
	replyEmbed(s, i, draftEmbed(catalog, name), draftComponents(catalog, d.ID))
}

func (b *Bot) handleDraftAddButton(s *discordgo.Session, i *discordgo.InteractionCreate, args []string) {
	draftID, soundID := args[0], args[1]

	catalog, err := b.fetchCatalog(i.GuildID)
	if err != nil {
		slog.Error("Error loading soundboard sounds", "guild", i.GuildID, "error", err)
		replyText(s, i, msgNoSounds)
		return
	}
	sound, ok := catalog.ByID(soundID)
	if !ok {
		replyText(s, i, msgNotFound)
		return
	}

	d, position, err := b.drafts.add(i.GuildID, draftID, sound)
	if err != nil {
		replyText(s, i, msgDraftGone)
		return
	}
	replyText(s, i, draftAddedMessage(sound.Name, d.Name, position))
}

func (b *Bot) handleDraftSaveButton(s *discordgo.Session, i *discordgo.InteractionCreate, args []string) {
	d, err := b.drafts.take(i.GuildID, args[0])
	if err != nil {
		replyText(s, i, msgDraftGone)
		return
	}
	if len(d.Sounds) == 0 {
		b.drafts.restore(d)
		replyText(s, i, "Add at least one sound before saving.")
		return
	}

	combination, err := b.store.Save(i.GuildID, d.Name, d.soundIDs())
	switch {
	case errors.Is(err, datastore.ErrCombinationExists):
		replyText(s, i, nameTakenMessage(d.Name))
		return
	case err != nil:
		slog.Error("Error saving combination to database", "guild", i.GuildID, "name", d.Name, "error", err)
		b.drafts.restore(d)
		replyText(s, i, msgSaveFailed)
		return
	}

	b.metrics.CombinationSaved()
	slog.Info("Saved combination", "guild", i.GuildID, "name", combination.Name, "sounds", len(combination.Sounds))
	replyText(s, i, fmt.Sprintf("Combination **%s** saved!", combination.Name))
}

// listOrReply loads the guild's combinations and tells the user when there are none.
func (b *Bot) listOrReply(s *discordgo.Session, i *discordgo.InteractionCreate, empty string) ([]datastore.Combination, bool) {
	combinations, err := b.store.List(i.GuildID)
	if err != nil {
		slog.Error("Error listing combinations", "guild", i.GuildID, "error", err)
		replyText(s, i, msgLoadFailed)
		return nil, false
	}
	if len(combinations) == 0 {
		replyText(s, i, empty)
		return nil, false
	}
	return combinations, true
}

func (b *Bot) handleListCombinations(s *discordgo.Session, i *discordgo.InteractionCreate) {
	combinations, ok := b.listOrReply(s, i, msgNoCombosYet)
	if !ok {
		return
	}
	replyEmbed(s, i, listCombinationsEmbed(combinations, time.Now()), nil)
}

func (b *Bot) handleDeleteCombinations(s *discordgo.Session, i *discordgo.InteractionCreate) {
	combinations, ok := b.listOrReply(s, i, msgNoCombos)
	if !ok {
		return
	}
	embed, components := deleteCombinationsView(combinations)
	replyEmbed(s, i, embed, components)
}

// combinationFromButton loads the combination whose id a button carries.
func (b *Bot) combinationFromButton(guildID, arg string) (*datastore.Combination, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid combination id %q: %w", arg, datastore.ErrCombinationNotFound)
	}
	return b.store.Get(guildID, uint(id))
}

func (b *Bot) handleDeleteButton(s *discordgo.Session, i *discordgo.InteractionCreate, args []string) {
	combination, err := b.combinationFromButton(i.GuildID, args[0])
	switch {
	case errors.Is(err, datastore.ErrCombinationNotFound):
		replyText(s, i, msgComboGone)
		return
	case err != nil:
		slog.Error("Error loading combination", "guild", i.GuildID, "id", args[0], "error", err)
		replyText(s, i, msgLoadFailed)
		return
	}

	err = b.store.Delete(i.GuildID, combination.Name)
	switch {
	case errors.Is(err, datastore.ErrCombinationNotFound):
		replyText(s, i, msgComboGone)
		return
	case err != nil:
		slog.Error("Error deleting combination from database", "guild", i.GuildID, "name", combination.Name, "error", err)
		replyText(s, i, "Failed to delete combination.")
		return
	}

	b.metrics.CombinationDeleted()
	slog.Info("Deleted combination", "guild", i.GuildID, "name", combination.Name)
	replyText(s, i, fmt.Sprintf("Combination **%s** deleted.", combination.Name))
}

func (b *Bot) handlePlayCombinations(s *discordgo.Session, i *discordgo.InteractionCreate) {
	combinations, ok := b.listOrReply(s, i, msgNoCombos)
	if !ok {
		return
	}
	embed, components := playCombinationsView(combinations)
	replyEmbed(s, i, embed, components)
}

// resolveSounds maps stored ids to sounds of the catalog. Sounds removed from
// the soundboard since saving are skipped.
func resolveSounds(catalog *soundboard.Catalog, ids []string) (found []soundboard.Sound, missing int) {
	for _, id := range ids {
		sound, ok := catalog.ByID(id)
		if !ok {
			missing++
			continue
		}
		found = append(found, sound)
	}
	return found, missing
}

func (b *Bot) handlePlayComboButton(s *discordgo.Session, i *discordgo.InteractionCreate, args []string) {
	channelID, err := b.targetVoiceChannel(i.GuildID, util.InteractionUser(i.Interaction).ID)
	if err != nil {
		replyText(s, i, msgNoVoice)
		return
	}
	if !deferReply(s, i) {
		return
	}

	combination, err := b.combinationFromButton(i.GuildID, args[0])
	switch {
	case errors.Is(err, datastore.ErrCombinationNotFound):
		editReplyText(s, i, msgComboGone)
		return
	case err != nil:
		slog.Error("Error loading combination", "guild", i.GuildID, "id", args[0], "error", err)
		editReplyText(s, i, msgLoadFailed)
		return
	}
	name := combination.Name

	catalog, err := b.fetchCatalog(i.GuildID)
	if err != nil {
		slog.Error("Error loading soundboard sounds", "guild", i.GuildID, "error", err)
		editReplyText(s, i, msgNoSounds)
		return
	}

	sounds, missing := resolveSounds(catalog, combination.SoundIDs())
	if missing > 0 {
		slog.Warn("Combination references removed sounds", "guild", i.GuildID, "name", name, "missing", missing)
	}
	if len(sounds) == 0 {
		editReplyText(s, i, fmt.Sprintf("None of the sounds of **%s** are on the soundboard anymore.", name))
		return
	}

	size := b.queues.Enqueue(i.GuildID, sounds...)
	msg := fmt.Sprintf("Playing combination **%s** (%s, queue size **%d**)", name, plural(len(sounds), "sound"), size)
	if missing > 0 {
		msg += fmt.Sprintf("\n%s no longer on the soundboard and skipped.", plural(missing, "sound"))
	}
	editReplyText(s, i, msg+"\n"+b.startPlayback(i.GuildID, channelID))
}
