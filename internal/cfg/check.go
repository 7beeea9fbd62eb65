package cfg

import (
	"fmt"
	"io"
	"strings"
)

var rule = strings.Repeat("=", 50)

// Check prints a human readable report of the loaded configuration
func Check(w io.Writer, c *Config) {
	fmt.Fprintf(w, "\n%s\n🔍 Discord Bot Configuration Check\n%s\n\n", rule, rule)

	if c.HasToken() {
		fmt.Fprintln(w, "✅ DISCORD_TOKEN is set")
	} else {
		fmt.Fprintln(w, "❌ DISCORD_TOKEN is not set or using placeholder")
		fmt.Fprintln(w, "   Go to: https://discord.com/developers/applications")
		fmt.Fprintln(w, "   Create a bot and copy the token to .env")
	}

	if c.Discord.GuildID != "" {
		fmt.Fprintf(w, "✅ Commands are registered for guild %s\n", c.Discord.GuildID)
	} else {
		fmt.Fprintln(w, "ℹ️  Commands are registered globally")
	}

	fmt.Fprintf(w, "✅ Database driver: %s\n", c.Database.Driver)
	fmt.Fprintf(w, "✅ Sound delay: %s\n", c.Playback.SoundDelay)
	if c.Web.Port > 0 {
		fmt.Fprintf(w, "✅ Status server on port %d\n", c.Web.Port)
	} else {
		fmt.Fprintln(w, "ℹ️  Status server disabled")
	}

	if err := c.Validate(); err != nil {
		fmt.Fprintf(w, "❌ %s\n", err)
	}

	fmt.Fprintf(w, "\n%s\n📝 Soundboard Setup:\n%s\n", rule, rule)
	fmt.Fprintln(w, "The bot uses Discord's native soundboard sounds.")
	fmt.Fprintln(w, "\nTo add sounds:")
	fmt.Fprintln(w, "  1. Go to your Discord server settings")
	fmt.Fprintln(w, "  2. Navigate to Soundboard (or Audio)")
	fmt.Fprintln(w, "  3. Add sounds to your server's soundboard")
	fmt.Fprintln(w, "  4. Use /soundboard command in Discord to play them")
	fmt.Fprintln(w)
}

const guide = `
📚 SETUP GUIDE FOR SOUNDBIG
===========================

STEP 1: Create Discord Bot
   • Go to https://discord.com/developers/applications
   • Click "New Application"
   • Go to "Bot" section and copy the TOKEN (keep it secret!)

STEP 2: Configure Bot Permissions
   • OAuth2 → URL Generator
   • Scopes: ✓ bot ✓ applications.commands
   • Permissions:
     ✓ Send Messages
     ✓ Use Slash Commands
     ✓ Connect (Voice)
     ✓ Speak (Voice)
     ✓ Use Soundboard
   • Copy the URL and open it to invite the bot to your server

STEP 3: Configure
   • Put DISCORD_TOKEN=your_token_here into .env
   • or set discord.token in config.yaml
   • Optional: DB_HOST, DB_NAME, DB_USER, DB_PASSWORD for postgres
   • Optional: SOUND_DELAY=3.5s to tune the pause between sounds

STEP 4: Add Soundboard Sounds
   • Server settings → Soundboard
   • Sounds added there are available to the bot automatically

STEP 5: Run Bot
   • soundbig migrate
   • soundbig run

🎯 COMMANDS:
   /soundboard                 - Show interactive soundboard
   /playsound <sound>          - Queue a sound and start playback
   /listsounds                 - List all available sounds
   /create_combination <name>  - Build and save a named combination
   /list_combinations          - List saved combinations
   /delete_combinations        - Delete saved combinations
   /play_created_combinations  - Play a saved combination
`

// Guide prints the setup instructions
func Guide(w io.Writer) {
	fmt.Fprint(w, guide)
}
