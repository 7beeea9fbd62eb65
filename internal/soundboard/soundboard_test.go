package soundboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method   string
	url      string
	data     interface{}
	bucketID string
}

type fakeRequester struct {
	calls []call
	body  []byte
	err   error
}

func (f *fakeRequester) RequestWithBucketID(method, urlStr string, data interface{}, bucketID string, options ...discordgo.RequestOption) ([]byte, error) {
	f.calls = append(f.calls, call{method: method, url: urlStr, data: data, bucketID: bucketID})
	return f.body, f.err
}

const listResponse = `{"items":[
	{"name":"airhorn","sound_id":"1","volume":1,"emoji_id":null,"emoji_name":"📯","guild_id":"42","available":true},
	{"name":"quack","sound_id":"2","volume":0.5,"emoji_id":"900","emoji_name":"duck","guild_id":"42","available":true},
	{"name":"gone","sound_id":"3","volume":1,"guild_id":"42","available":false},
	{"name":"airhorn","sound_id":"4","volume":1,"guild_id":"42","available":true},
	{"name":"Applause","sound_id":"5","volume":1,"available":true}
]}`

func TestFetch(t *testing.T) {
	r := &fakeRequester{body: []byte(listResponse)}

	catalog, err := Fetch(context.Background(), r, "42")
	require.NoError(t, err)

	require.Len(t, r.calls, 1)
	assert.Equal(t, http.MethodGet, r.calls[0].method)
	assert.Equal(t, discordgo.EndpointGuild("42")+"/soundboard-sounds", r.calls[0].url)

	assert.Equal(t, 3, catalog.Len())
	var names []string
	for _, s := range catalog.Sounds() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"airhorn", "quack", "Applause"}, names)

	horn, ok := catalog.ByName("airhorn")
	require.True(t, ok)
	assert.Equal(t, "1", horn.ID, "first sound with a name wins")

	_, ok = catalog.ByName("gone")
	assert.False(t, ok, "unavailable sounds are dropped")

	applause, ok := catalog.ByID("5")
	require.True(t, ok)
	assert.Equal(t, "42", applause.GuildID, "guild id is filled in")
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name string
		r    *fakeRequester
	}{
		{name: "request failed", r: &fakeRequester{err: errors.New("boom")}},
		{name: "bad json", r: &fakeRequester{body: []byte("{")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fetch(context.Background(), tt.r, "42")
			assert.Error(t, err)
		})
	}
}

func TestFetchEmpty(t *testing.T) {
	r := &fakeRequester{body: []byte(`{"items":[]}`)}
	catalog, err := Fetch(context.Background(), r, "42")
	require.NoError(t, err)
	assert.Zero(t, catalog.Len())
}

func TestSend(t *testing.T) {
	r := &fakeRequester{}
	sound := Sound{Name: "airhorn", ID: "1", GuildID: "42"}

	require.NoError(t, Send(context.Background(), r, "777", sound))

	require.Len(t, r.calls, 1)
	assert.Equal(t, http.MethodPost, r.calls[0].method)
	assert.Equal(t, discordgo.EndpointChannel("777")+"/send-soundboard-sound", r.calls[0].url)

	body, err := json.Marshal(r.calls[0].data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sound_id":"1","source_guild_id":"42"}`, string(body))

	r.err = errors.New("missing permissions")
	assert.Error(t, Send(context.Background(), r, "777", sound))
}

func TestSoundEmoji(t *testing.T) {
	tests := []struct {
		name  string
		sound Sound
		want  *discordgo.ComponentEmoji
	}{
		{name: "none", sound: Sound{}, want: nil},
		{name: "unicode", sound: Sound{EmojiName: "📯"}, want: &discordgo.ComponentEmoji{Name: "📯"}},
		{name: "custom", sound: Sound{EmojiID: "900", EmojiName: "duck"}, want: &discordgo.ComponentEmoji{ID: "900", Name: "duck"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sound.Emoji())
		})
	}
}

func TestCatalogSearch(t *testing.T) {
	catalog := NewCatalog("42", []Sound{
		{Name: "bruh", ID: "1", Available: true},
		{Name: "airhorn", ID: "2", Available: true},
		{Name: "Air raid", ID: "3", Available: true},
		{Name: "hair dryer", ID: "4", Available: true},
	})

	var names []string
	for _, s := range catalog.Search("air", 0) {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Air raid", "airhorn", "hair dryer"}, names)

	assert.Len(t, catalog.Search("", 2), 2)
	assert.Empty(t, catalog.Search("xyz", 5))
}
