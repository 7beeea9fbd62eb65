package soundbig

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toksikk/soundbig/internal/cfg"
	"github.com/toksikk/soundbig/internal/datastore"
	"github.com/toksikk/soundbig/internal/playback"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// discordAPI answers REST calls of a discordgo session and records the
// interaction replies.
type discordAPI struct {
	mu          sync.Mutex
	soundsDown  bool
	soundsBody  string
	replies     []string
	unsupported []string
}

func (d *discordAPI) RoundTrip(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	path := req.URL.Path
	switch {
	case strings.HasSuffix(path, "/soundboard-sounds"):
		if d.soundsDown {
			return jsonResponse(http.StatusForbidden, `{"message": "Missing Access", "code": 50001}`), nil
		}
		return jsonResponse(http.StatusOK, d.soundsBody), nil
	case strings.HasSuffix(path, "/callback"):
		var resp struct {
			Data struct {
				Content string `json:"content"`
			} `json:"data"`
		}
		if req.Body != nil {
			_ = json.NewDecoder(req.Body).Decode(&resp)
		}
		d.replies = append(d.replies, resp.Data.Content)
		return jsonResponse(http.StatusNoContent, ""), nil
	}
	d.unsupported = append(d.unsupported, req.Method+" "+path)
	return jsonResponse(http.StatusNotFound, `{"message": "Unknown"}`), nil
}

func (d *discordAPI) lastReply(t *testing.T) string {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.replies, "no interaction reply sent")
	return d.replies[len(d.replies)-1]
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func newHandlerStore(t *testing.T) *datastore.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, datastore.Migrate(db))
	return datastore.NewStore(db)
}

func newTestBot(t *testing.T, api *discordAPI) (*Bot, *discordgo.Session) {
	t.Helper()
	session, err := discordgo.New("Bot test")
	require.NoError(t, err)
	session.Client = &http.Client{Transport: api}
	session.MaxRestRetries = 0

	b := NewBot(context.Background(), session, &cfg.Config{}, newHandlerStore(t), playback.NewRegistry(0, nil), nil)
	return b, session
}

func buttonPress(guildID, customID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:      "i1",
		AppID:   "app",
		Token:   "token",
		Type:    discordgo.InteractionMessageComponent,
		GuildID: guildID,
		Member:  &discordgo.Member{User: &discordgo.User{ID: "u1"}},
		Data:    discordgo.MessageComponentInteractionData{CustomID: customID},
	}}
}

func TestButtonsReportUnavailableSoundboard(t *testing.T) {
	api := &discordAPI{soundsDown: true}
	b, s := newTestBot(t, api)

	b.handleQueueButton(s, buttonPress("g1", customID(actionQueue, "1")), []string{"1"})
	assert.Equal(t, msgNoSounds, api.lastReply(t))
	assert.Zero(t, b.queues.Len("g1"))

	d := b.drafts.create("g1", "intro")
	b.handleDraftAddButton(s, buttonPress("g1", customID(actionDraftAdd, d.ID, "1")), []string{d.ID, "1"})
	assert.Equal(t, msgNoSounds, api.lastReply(t))
	assert.Empty(t, api.unsupported)
}

func TestQueueButtonUnknownSound(t *testing.T) {
	api := &discordAPI{soundsBody: `{"items": [{"name": "horn", "sound_id": "1", "available": true}]}`}
	b, s := newTestBot(t, api)

	b.handleQueueButton(s, buttonPress("g1", customID(actionQueue, "2")), []string{"2"})
	assert.Equal(t, msgNotFound, api.lastReply(t))

	b.handleQueueButton(s, buttonPress("g1", customID(actionQueue, "1")), []string{"1"})
	assert.Equal(t, 1, b.queues.Len("g1"))
	assert.Empty(t, api.unsupported)
}

func TestDeleteButtonUsesCombinationID(t *testing.T) {
	api := &discordAPI{}
	b, s := newTestBot(t, api)

	// a name containing the custom id separator
	_, err := b.store.Save("g1", "intro:loud", []string{"1"})
	require.NoError(t, err)
	combinations, err := b.store.List("g1")
	require.NoError(t, err)
	require.Len(t, combinations, 1)

	_, components := deleteCombinationsView(combinations)
	button := buttonsOf(t, components[0])[0]
	action, args, err := parseCustomID(button.CustomID)
	require.NoError(t, err)
	require.Equal(t, actionDelete, action)

	b.handleDeleteButton(s, buttonPress("g1", button.CustomID), args)
	assert.Equal(t, "Combination **intro:loud** deleted.", api.lastReply(t))

	combinations, err = b.store.List("g1")
	require.NoError(t, err)
	assert.Empty(t, combinations)

	// pressing the stale button again
	b.handleDeleteButton(s, buttonPress("g1", button.CustomID), args)
	assert.Equal(t, msgComboGone, api.lastReply(t))

	b.handleDeleteButton(s, buttonPress("g1", customID(actionDelete, "nope")), []string{"nope"})
	assert.Equal(t, msgComboGone, api.lastReply(t))
	assert.Empty(t, api.unsupported)
}
