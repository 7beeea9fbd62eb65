// Package soundboard talks to the guild soundboard endpoints and holds the
// per-request sound catalog of a guild.
package soundboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Requester is the part of *discordgo.Session used for raw REST calls.
type Requester interface {
	RequestWithBucketID(method, urlStr string, data interface{}, bucketID string, options ...discordgo.RequestOption) ([]byte, error)
}

// Sound is a soundboard sound as returned by the platform.
type Sound struct {
	Name      string  `json:"name"`
	ID        string  `json:"sound_id"`
	GuildID   string  `json:"guild_id,omitempty"`
	Volume    float64 `json:"volume"`
	EmojiID   string  `json:"emoji_id,omitempty"`
	EmojiName string  `json:"emoji_name,omitempty"`
	Available bool    `json:"available"`
}

// Emoji returns the button emoji of the sound or nil if it has none.
func (s Sound) Emoji() *discordgo.ComponentEmoji {
	switch {
	case s.EmojiID != "":
		return &discordgo.ComponentEmoji{ID: s.EmojiID, Name: s.EmojiName}
	case s.EmojiName != "":
		return &discordgo.ComponentEmoji{Name: s.EmojiName}
	}
	return nil
}

// String is used in log output
func (s Sound) String() string {
	return s.Name + " (" + s.ID + ")"
}

// Catalog maps sound names to sounds for one guild. It is built from a
// single fetch and never refreshed in place.
type Catalog struct {
	GuildID string
	sounds  []Sound
	byName  map[string]int
	byID    map[string]int
}

// NewCatalog builds a catalog. Unavailable sounds are dropped, for duplicate
// names the first sound wins.
func NewCatalog(guildID string, sounds []Sound) *Catalog {
	c := &Catalog{
		GuildID: guildID,
		byName:  make(map[string]int, len(sounds)),
		byID:    make(map[string]int, len(sounds)),
	}
	for _, s := range sounds {
		if !s.Available {
			continue
		}
		if _, dup := c.byName[s.Name]; dup {
			continue
		}
		if s.GuildID == "" {
			s.GuildID = guildID
		}
		c.byName[s.Name] = len(c.sounds)
		c.byID[s.ID] = len(c.sounds)
		c.sounds = append(c.sounds, s)
	}
	return c
}

// Len returns the number of sounds
func (c *Catalog) Len() int {
	return len(c.sounds)
}

// Sounds returns a copy of all sounds in platform order
func (c *Catalog) Sounds() []Sound {
	out := make([]Sound, len(c.sounds))
	copy(out, c.sounds)
	return out
}

// ByName looks a sound up by its name
func (c *Catalog) ByName(name string) (Sound, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Sound{}, false
	}
	return c.sounds[i], true
}

// ByID looks a sound up by its id
func (c *Catalog) ByID(id string) (Sound, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Sound{}, false
	}
	return c.sounds[i], true
}

// Search returns up to limit sounds whose name contains query, case
// insensitive. Prefix matches come first.
func (c *Catalog) Search(query string, limit int) []Sound {
	q := strings.ToLower(strings.TrimSpace(query))
	var prefix, contains []Sound
	for _, s := range c.sounds {
		name := strings.ToLower(s.Name)
		switch {
		case strings.HasPrefix(name, q):
			prefix = append(prefix, s)
		case strings.Contains(name, q):
			contains = append(contains, s)
		}
	}
	sort.SliceStable(prefix, func(i, j int) bool { return strings.ToLower(prefix[i].Name) < strings.ToLower(prefix[j].Name) })
	out := append(prefix, contains...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func soundsEndpoint(guildID string) string {
	return discordgo.EndpointGuild(guildID) + "/soundboard-sounds"
}

func sendEndpoint(channelID string) string {
	return discordgo.EndpointChannel(channelID) + "/send-soundboard-sound"
}

// Fetch loads the soundboard of a guild.
func Fetch(ctx context.Context, r Requester, guildID string) (*Catalog, error) {
	endpoint := soundsEndpoint(guildID)
	body, err := r.RequestWithBucketID(http.MethodGet, endpoint, nil, endpoint, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("could not fetch soundboard of guild %s: %w", guildID, err)
	}

	var resp struct {
		Items []Sound `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("could not decode soundboard of guild %s: %w", guildID, err)
	}

	return NewCatalog(guildID, resp.Items), nil
}

type sendRequest struct {
	SoundID       string `json:"sound_id"`
	SourceGuildID string `json:"source_guild_id,omitempty"`
}

// Send plays a sound in the voice channel the bot is connected to.
func Send(ctx context.Context, r Requester, channelID string, s Sound) error {
	endpoint := sendEndpoint(channelID)
	data := sendRequest{SoundID: s.ID, SourceGuildID: s.GuildID}
	if _, err := r.RequestWithBucketID(http.MethodPost, endpoint, data, endpoint, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("could not send sound %s to channel %s: %w", s, channelID, err)
	}
	return nil
}
