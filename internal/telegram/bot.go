package telegram

import (
	"context"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-chatlog/internal/auth"
	"ai-chatlog/internal/llm"
	"ai-chatlog/internal/profile"
	"ai-chatlog/internal/report"
	"ai-chatlog/internal/session"
	"ai-chatlog/internal/storage"
)

// maxMessageLen keeps replies under Telegram's 4096 character limit.
const maxMessageLen = 4000

// ChatLog is the chat log as the bot uses it.
type ChatLog interface {
	storage.Recorder
	ReadDay(date time.Time) ([]string, error)
}

type Options struct {
	AdminUserID  int64
	LogChannelID int64
	ParseMode    string
	Location     *time.Location
}

type Bot struct {
	api          *tgbotapi.BotAPI
	s            sender
	authSvc      *auth.Service
	llmClient    llm.Client
	chatLog      ChatLog
	state        *session.State
	profiles     profile.Repository
	news         *report.News
	adminUserID  int64
	logChannelID int64
	parseMode    string
	loc          *time.Location
	now          func() time.Time
}

func New(botToken string, authSvc *auth.Service, llmClient llm.Client, chatLog ChatLog, state *session.State, profiles profile.Repository, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	b := newBot(botAPISender{api: api}, authSvc, llmClient, chatLog, state, profiles, opts)
	b.api = api
	return b, nil
}

func newBot(s sender, authSvc *auth.Service, llmClient llm.Client, chatLog ChatLog, state *session.State, profiles profile.Repository, opts Options) *Bot {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Bot{
		s:            s,
		authSvc:      authSvc,
		llmClient:    llmClient,
		chatLog:      chatLog,
		state:        state,
		profiles:     profiles,
		news:         report.NewNews(llmClient),
		adminUserID:  opts.AdminUserID,
		logChannelID: opts.LogChannelID,
		parseMode:    opts.ParseMode,
		loc:          loc,
		now:          time.Now,
	}
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	log.Printf("🤖 Authorized on account %s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			if update.Message.Chat != nil && !update.Message.Chat.IsPrivate() {
				continue
			}
			b.handleUpdate(ctx, update.Message)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if msg.Text == "" {
		return
	}
	b.handleIncomingMessage(ctx, msg)
}

func (b *Bot) today() time.Time { return b.now().In(b.loc) }

// sendMessage sends text with the configured parse mode.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = b.parseMode
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

// sendPlain sends raw log text, split into Telegram-sized chunks.
func (b *Bot) sendPlain(chatID int64, text string) {
	for _, part := range report.Chunk(text, maxMessageLen) {
		if _, err := b.s.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			log.Printf("failed to send message: %v", err)
			return
		}
	}
}

func (b *Bot) notifyAdmin(text string) {
	if b.adminUserID == 0 {
		return
	}
	b.sendPlain(b.adminUserID, text)
}
