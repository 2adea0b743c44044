// Package bot implements the Telegram surface: commands, guided add and
// recalc conversations, inline keyboards, and watering reminders.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/floralog/floralog/advisor"
	"github.com/floralog/floralog/catalog"
	"github.com/floralog/floralog/engine"
	"github.com/floralog/floralog/internal/profile"
	"github.com/floralog/floralog/store"
	"github.com/floralog/floralog/weather"
)

// telegramAPI is the slice of tgbotapi.BotAPI the handlers use. Faked in
// tests.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wires the Telegram transport to the watering services.
type Bot struct {
	profile *profile.Profile
	api     telegramAPI
	tg      *tgbotapi.BotAPI
	store   *store.Store
	engine  *engine.Service
	weather *weather.Service
	catalog *catalog.Resolver
	advisor *advisor.Service

	mu        sync.Mutex
	states    map[int64]*conversationState
	cityPicks map[int64][]weather.CityOption
	userLocks map[int64]*sync.Mutex
}

// New creates the bot and authenticates against the Telegram API.
func New(p *profile.Profile, st *store.Store, eng *engine.Service, w *weather.Service, cat *catalog.Resolver, adv *advisor.Service) (*Bot, error) {
	tg, err := tgbotapi.NewBotAPI(p.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	slog.Info("telegram bot authorized", "username", tg.Self.UserName)

	return &Bot{
		profile:   p,
		api:       tg,
		tg:        tg,
		store:     st,
		engine:    eng,
		weather:   w,
		catalog:   cat,
		advisor:   adv,
		states:    make(map[int64]*conversationState),
		cityPicks: make(map[int64][]weather.CityOption),
		userLocks: make(map[int64]*sync.Mutex),
	}, nil
}

// Start long-polls Telegram and dispatches updates to a worker pool.
// Blocks until the context is canceled.
func (b *Bot) Start(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.tg.GetUpdatesChan(cfg)

	go func() {
		<-ctx.Done()
		b.tg.StopReceivingUpdates()
	}()

	workers := b.profile.BotUpdateWorkers
	slog.Info("telegram update workers started", "workers", workers)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for update := range updates {
				b.processUpdate(ctx, update)
			}
			return nil
		})
	}
	return g.Wait()
}

// processUpdate serializes updates per user so a conversation cannot
// interleave with itself.
func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	userID, ok := updateUserID(update)
	if !ok {
		b.safeProcessUpdate(ctx, update)
		return
	}

	b.mu.Lock()
	lock, exists := b.userLocks[userID]
	if !exists {
		lock = &sync.Mutex{}
		b.userLocks[userID] = lock
	}
	b.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	b.safeProcessUpdate(ctx, update)
}

func (b *Bot) safeProcessUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while processing telegram update", "panic", r)
		}
	}()

	if update.CallbackQuery != nil {
		slog.Info("callback received", "data", update.CallbackQuery.Data)
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil {
		return
	}
	message := update.Message
	user, err := b.getOrCreateUser(ctx, message.From)
	if err != nil {
		slog.Error("failed to resolve user", "err", err)
		return
	}
	if message.Location != nil {
		b.handleLocationMessage(ctx, user, message)
		return
	}
	if message.Text == "" {
		return
	}

	text := strings.TrimSpace(message.Text)
	slog.Info("message received", "user", user.TelegramID, "chat_id", message.Chat.ID, "text", text)

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, user, message.Chat.ID, text)
		return
	}
	b.handleConversation(ctx, user, message.Chat.ID, text)
}

func updateUserID(update tgbotapi.Update) (int64, bool) {
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		return update.CallbackQuery.From.ID, true
	}
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID, true
	}
	return 0, false
}

func (b *Bot) getOrCreateUser(ctx context.Context, from *tgbotapi.User) (*store.User, error) {
	if from == nil {
		return nil, fmt.Errorf("update has no sender")
	}
	user, err := b.store.GetUserByTelegramID(ctx, from.ID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	return b.store.CreateUser(ctx, &store.User{
		TelegramID: from.ID,
		Username:   from.UserName,
		FirstName:  from.FirstName,
	})
}

// SendWateringReminder pushes a reminder with a "watered" button. Returns
// false when Telegram rejects the send so the scheduler can retry later.
func (b *Bot) SendWateringReminder(user *store.User, plant *store.Plant, rec *engine.Recommendation) bool {
	text := fmt.Sprintf("💧 Пора поливать \"%s\"!\nРекомендуемый интервал: %s\nРекомендуемый объём воды: %s",
		plant.Name, formatDays(rec.IntervalDays), formatWaterAmount(plant, rec, time.Now()))
	msg := tgbotapi.NewMessage(user.TelegramID, text)
	msg.ReplyMarkup = wateredButton(plant.ID)
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("failed to send watering reminder", "chat_id", user.TelegramID, "err", err)
		return false
	}
	return true
}

// send helpers

func (b *Bot) sendText(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendTextWithCancel(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = cancelKeyboard()
	b.sendMessage(msg)
}

func (b *Bot) sendWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	b.sendMessage(msg)
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("failed to send message", "chat_id", msg.ChatID, "err", err)
	}
}

// sendLoadingMessage sends a placeholder that can be edited in place once
// the slow path finishes. Returns 0 when the send failed.
func (b *Bot) sendLoadingMessage(chatID int64, text string) int {
	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		slog.Warn("failed to send loading message", "chat_id", chatID, "err", err)
		return 0
	}
	return sent.MessageID
}

func (b *Bot) tryEditMessage(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) bool {
	if messageID == 0 {
		return false
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = markup
	if _, err := b.api.Send(edit); err != nil {
		slog.Warn("failed to edit message", "chat_id", chatID, "message_id", messageID, "err", err)
		return false
	}
	return true
}
