package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-chatlog/internal/analytics"
	"ai-chatlog/internal/llm"
	"ai-chatlog/internal/profile"
	"ai-chatlog/internal/report"
	"ai-chatlog/internal/storage"
)

const (
	genericErrorText = "Sorry, I encountered an error processing your message."
	notAllowedText   = "⛔ You don't have access to this bot yet. Ask the admin to /promote you."
	adminOnlyText    = "❌ This command is only available to the admin."
	gfModeUsage      = "Please use /gfmode on or /gfmode off"
	logsUsage        = "Error reading logs. Usage: /logs YYYY-MM-DD\nExample: /logs 2024-05-23"
	backupUsage      = "Please use the format: /backup 1:00pm - 2:00pm"
	promoteUsage     = "Please provide a valid user ID.\nFormat: /promote user_id"
	demoteUsage      = "Please provide a valid user ID.\nFormat: /demote user_id"
	statsUsage       = "Usage: /stats [YYYY-MM-DD] [json]"
)

const gfModePrompt = `Act as a caring and loving girlfriend responding to: '%s'
Use cute emojis and be romantic but respectful.
Call them by their name: %s
Keep the response short and sweet.`

// adminCommands are refused for everyone but the admin.
var adminCommands = map[string]bool{
	"logs":    true,
	"backup":  true,
	"promote": true,
	"demote":  true,
	"stats":   true,
	"news":    true,
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	if adminCommands[cmd] && !b.authSvc.IsAdmin(msg.From.ID) {
		b.sendMessage(msg.Chat.ID, adminOnlyText)
		return
	}
	switch cmd {
	case "start":
		b.handleStart(msg)
	case "on", "sa":
		b.state.SetAssistantEnabled(true)
		b.sendMessage(msg.Chat.ID, "🟢 *Assistant responses are now enabled!*")
	case "off", "ss":
		b.state.SetAssistantEnabled(false)
		b.sendMessage(msg.Chat.ID, "🔴 *Assistant responses are now disabled. Commands still work!*")
	case "gfmode":
		b.handleGFMode(msg)
	case "logs":
		b.handleLogs(msg)
	case "backup":
		b.handleBackup(msg)
	case "promote":
		b.handlePromote(msg)
	case "demote":
		b.handleDemote(msg)
	case "stats":
		b.handleStats(msg)
	case "news":
		b.handleNews(ctx, msg)
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	p := profile.Profile{
		UserID:   msg.From.ID,
		Name:     msg.From.FirstName,
		Username: msg.From.UserName,
		JoinedAt: b.today(),
	}
	if b.profiles != nil {
		if err := b.profiles.SaveProfile(p); err != nil {
			log.Printf("❌ Failed to save profile %d: %v", p.UserID, err)
		}
	}
	// reload so a preference changed in the store is picked up
	b.state.Forget(p.UserID)
	if _, err := b.state.Preferences(p.UserID); err != nil {
		log.Printf("⚠️ Failed to load preferences for %d: %v", p.UserID, err)
	}

	name := p.Name
	if name == "" {
		name = "friend"
	}
	b.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"🌸 *Ayubowan %s!* 🌺\n\n"+
			"I'm your AI chat companion. Just send me a message!\n\n"+
			"💝 *Girlfriend Mode* - Use /gfmode on or /gfmode off\n"+
			"🟢 /on and 🔴 /off switch my replies\n\n"+
			"Feel free to chat with me in English! 🌟", name))
}

func (b *Bot) handleGFMode(msg *tgbotapi.Message) {
	var on bool
	switch strings.ToLower(strings.TrimSpace(msg.CommandArguments())) {
	case "on":
		on = true
	case "off":
		on = false
	default:
		b.sendMessage(msg.Chat.ID, gfModeUsage)
		return
	}
	if err := b.state.SetGFMode(msg.From.ID, on); err != nil {
		log.Printf("❌ Failed to save gf mode for %d: %v", msg.From.ID, err)
		b.sendMessage(msg.Chat.ID, genericErrorText)
		return
	}
	if on {
		b.sendMessage(msg.Chat.ID, "💝 Girlfriend mode activated! I'll be more romantic and caring now~ 💕")
		return
	}
	b.sendMessage(msg.Chat.ID, "Girlfriend mode deactivated. Back to normal mode!")
}

// parseDateArg reads an optional YYYY-MM-DD argument; empty means today.
func (b *Bot) parseDateArg(arg string) (time.Time, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return b.today(), nil
	}
	return time.ParseInLocation(storage.DateLayout, arg, b.loc)
}

func (b *Bot) handleLogs(msg *tgbotapi.Message) {
	date, err := b.parseDateArg(msg.CommandArguments())
	if err != nil {
		b.sendMessage(msg.Chat.ID, logsUsage)
		return
	}
	lines, err := b.chatLog.ReadDay(date)
	if errors.Is(err, storage.ErrNoPartition) {
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("No logs found for date %s", date.Format(storage.DateLayout)))
		return
	}
	if err != nil {
		log.Printf("⚠️ Error reading logs for %s: %v", date.Format(storage.DateLayout), err)
		b.sendMessage(msg.Chat.ID, logsUsage)
		return
	}
	if len(lines) == 0 {
		b.sendMessage(msg.Chat.ID, "No messages found.")
		return
	}
	b.sendPlain(msg.Chat.ID, strings.Join(lines, "\n"))
}

func (b *Bot) handleBackup(msg *tgbotapi.Message) {
	start, end, err := report.ParseClockRange(msg.CommandArguments(), b.today())
	if err != nil {
		log.Printf("Error creating backup: %v", err)
		b.sendMessage(msg.Chat.ID, backupUsage)
		return
	}
	b.sendPlain(msg.Chat.ID, report.Backup(b.chatLog, start, end))
}

// userIDArg parses the single user id argument of /promote and /demote.
func userIDArg(msg *tgbotapi.Message) (int64, bool) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		return 0, false
	}
	uid, err := strconv.ParseInt(args[0], 10, 64)
	return uid, err == nil
}

func (b *Bot) handlePromote(msg *tgbotapi.Message) {
	uid, ok := userIDArg(msg)
	if !ok {
		b.sendMessage(msg.Chat.ID, promoteUsage)
		return
	}
	if err := b.authSvc.Promote(uid); err != nil {
		log.Printf("❌ Failed to persist promotion of %d: %v", uid, err)
		b.sendPlain(msg.Chat.ID, fmt.Sprintf("❌ Failed to save promotion of user %d, allow-list unchanged: %v", uid, err))
		return
	}
	b.sendMessage(msg.Chat.ID, fmt.Sprintf("User %d has been granted access to the bot.", uid))
}

func (b *Bot) handleDemote(msg *tgbotapi.Message) {
	uid, ok := userIDArg(msg)
	if !ok {
		b.sendMessage(msg.Chat.ID, demoteUsage)
		return
	}
	if b.authSvc.IsAdmin(uid) {
		b.sendMessage(msg.Chat.ID, "❌ The admin cannot be demoted.")
		return
	}
	if err := b.authSvc.Remove(uid); err != nil {
		log.Printf("❌ Failed to persist demotion of %d: %v", uid, err)
		b.sendPlain(msg.Chat.ID, fmt.Sprintf("❌ Failed to save demotion of user %d, allow-list unchanged: %v", uid, err))
		return
	}
	b.sendMessage(msg.Chat.ID, fmt.Sprintf("User %d no longer has access to the bot.", uid))
}

// handleStats answers /stats [YYYY-MM-DD] [json].
func (b *Bot) handleStats(msg *tgbotapi.Message) {
	var dateArg string
	asJSON := false
	for _, a := range strings.Fields(msg.CommandArguments()) {
		switch {
		case strings.EqualFold(a, "json") && !asJSON:
			asJSON = true
		case dateArg == "":
			dateArg = a
		default:
			b.sendMessage(msg.Chat.ID, statsUsage)
			return
		}
	}
	date, err := b.parseDateArg(dateArg)
	if err != nil {
		b.sendMessage(msg.Chat.ID, statsUsage)
		return
	}
	stats := b.dayStats(date)
	if !asJSON {
		b.sendPlain(msg.Chat.ID, stats.Summary())
		return
	}
	out, err := stats.ToJSON()
	if err != nil {
		log.Printf("❌ Failed to encode stats: %v", err)
		b.sendMessage(msg.Chat.ID, genericErrorText)
		return
	}
	b.sendPlain(msg.Chat.ID, out)
}

func (b *Bot) dayStats(date time.Time) *analytics.DailyStats {
	day := date.In(b.loc)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, b.loc)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return analytics.AnalyzeDay(b.chatLog.Query(start, end), start)
}

func (b *Bot) handleNews(ctx context.Context, msg *tgbotapi.Message) {
	if err := b.DailyReport(ctx, b.today()); err != nil {
		log.Printf("❌ Manual daily report failed: %v", err)
		b.sendMessage(msg.Chat.ID, "❌ Daily report failed, see the bot logs.")
		return
	}
	b.sendMessage(msg.Chat.ID, "✅ Daily report sent.")
}

// handleIncomingMessage answers a plain text message and records the exchange.
func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !b.authSvc.IsAllowed(msg.From.ID) {
		log.Printf("Unauthorized access attempt by user ID: %d, username: @%s", msg.From.ID, msg.From.UserName)
		b.sendMessage(msg.Chat.ID, notAllowedText)
		return
	}
	if !b.state.AssistantEnabled() {
		return
	}
	log.Printf("Incoming message from %d (@%s): %q", msg.From.ID, msg.From.UserName, msg.Text)

	prompt, err := b.buildPrompt(msg.From.ID, msg.Text)
	if err != nil {
		log.Printf("⚠️ Falling back to plain prompt for %d: %v", msg.From.ID, err)
		prompt = msg.Text
	}
	resp, err := b.llmClient.Generate(ctx, llm.Prompt("", prompt))
	if err != nil {
		log.Printf("Error handling message: %v", err)
		b.sendMessage(msg.Chat.ID, genericErrorText)
		return
	}
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		reply = "I couldn't generate a response for that."
	}
	log.Printf("LLM response [model=%s, tokens: prompt=%d, completion=%d, total=%d]",
		resp.Model, resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens)

	b.recordExchange(msg.From.ID, msg.Text, reply)

	if b.logChannelID != 0 {
		b.sendPlain(b.logChannelID, fmt.Sprintf("👤 User %d\n💬 Message: %s\n\n🤖 Bot response:\n%s", msg.From.ID, msg.Text, reply))
	}
	b.sendPlain(msg.Chat.ID, reply)
}

func (b *Bot) buildPrompt(userID int64, text string) (string, error) {
	prefs, err := b.state.Preferences(userID)
	if err != nil {
		return "", err
	}
	if !prefs.GFMode {
		return text, nil
	}
	name := "dear"
	if b.profiles != nil {
		if p, ok, err := b.profiles.GetProfile(userID); err == nil && ok && p.Name != "" {
			name = p.Name
		}
	}
	return fmt.Sprintf(gfModePrompt, text, name), nil
}

// recordExchange appends both sides of a turn. Write failures go to the admin,
// never to the user.
func (b *Bot) recordExchange(userID int64, text, reply string) {
	err := b.chatLog.Record(userID, text, false)
	if err == nil {
		err = b.chatLog.Record(userID, reply, true)
	}
	if err != nil {
		log.Printf("❌ Chat log write failed: %v", err)
		b.notifyAdmin(fmt.Sprintf("⚠️ Chat log write failed: %v", err))
	}
}
