// Package telegram provides the notification transport and the interactive
// bot command surface.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"edgewatch/internal/logger"
	"edgewatch/internal/models"
)

// Status is the read-only snapshot served by /status.
type Status struct {
	TrackedMarkets  int
	EdgeMarkets     int
	LastCheck       time.Time
	AlertsToday     int
	PollInterval    time.Duration
	Uptime          time.Duration
	InitialScanDone bool
}

// Callbacks are the orchestrator queries behind the interactive commands.
type Callbacks struct {
	Status   func() Status
	Trending func() []models.Market
}

// Client handles Telegram notifications and bot commands.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	callbacks      Callbacks
}

// NewClient creates a new Telegram client. Command callbacks are wired
// afterwards via SetCallbacks, once the orchestrator exists.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SetCallbacks installs the status and trending queries behind the
// interactive commands. Call before ListenForCommands.
func (c *Client) SetCallbacks(callbacks Callbacks) {
	c.callbacks = callbacks
}

// ListenForCommands starts a goroutine that polls for Telegram updates and
// handles bot commands. It returns immediately; the goroutine stops when
// ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	if msg.Chat.ID != c.chatID {
		logger.WithComponent("telegram").Warnf("ignoring command from unauthorized chat %d", msg.Chat.ID)
		return
	}
	switch msg.Command() {
	case "ping":
		c.reply(msg.Chat.ID, "Pong")
	case "start", "help":
		c.reply(msg.Chat.ID, welcomeMessage())
	case "status":
		if c.callbacks.Status == nil {
			c.reply(msg.Chat.ID, "Status unavailable")
			return
		}
		c.reply(msg.Chat.ID, formatStatus(c.callbacks.Status()))
	case "trending":
		if c.callbacks.Trending == nil {
			c.reply(msg.Chat.ID, "Trending unavailable")
			return
		}
		c.reply(msg.Chat.ID, formatTrending(c.callbacks.Trending()))
	}
}

func (c *Client) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "MarkdownV2"
	msg.DisableWebPagePreview = true
	if _, err := c.bot.Send(msg); err != nil {
		logger.WithComponent("telegram").Warnf("failed to send command reply: %v", err)
	}
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			time.Sleep(c.retryDelayBase * time.Duration(i))
		}
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendMessage sends a plain notification to the configured chat.
func (c *Client) SendMessage(text string) error {
	return c.sendMarkdownV2(text)
}

// SendAlert delivers one alert event. It reports success so the caller can
// count deliveries; failures are logged, never retried beyond the bounded
// retry, and never block subsequent deliveries.
func (c *Client) SendAlert(alert *models.Alert) bool {
	if err := c.sendMarkdownV2(alert.FormatMessage()); err != nil {
		logger.WithComponent("telegram").Errorf("failed to deliver %s alert for market %s: %v",
			alert.Kind, alert.Market.ID, err)
		return false
	}
	return true
}

// SendError sends a monitoring error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(cycleErr error) error {
	text := fmt.Sprintf("⚠️ *Monitoring error*\n`%s`", models.EscapeMarkdownV2(cycleErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Monitoring recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

func welcomeMessage() string {
	lines := []string{
		"👋 *Polymarket Edge Bot*",
		"",
		models.EscapeMarkdownV2("I watch Polymarket for markets in your edge domains and alert on:"),
		models.EscapeMarkdownV2("• 🆕 New markets with real liquidity"),
		models.EscapeMarkdownV2("• 📊 Significant price moves"),
		models.EscapeMarkdownV2("• 🔥 Volume spikes"),
		"",
		"*Commands:*",
		models.EscapeMarkdownV2("/status - bot status"),
		models.EscapeMarkdownV2("/trending - top edge markets"),
		models.EscapeMarkdownV2("/help - this message"),
	}
	return strings.Join(lines, "\n")
}

func formatStatus(s Status) string {
	lastCheck := "never"
	if !s.LastCheck.IsZero() {
		lastCheck = s.LastCheck.UTC().Format("2006-01-02 15:04:05 UTC")
	}
	lines := []string{
		"✅ *Bot Status*",
		"",
		models.EscapeMarkdownV2(fmt.Sprintf("📊 Markets tracked: %d", s.TrackedMarkets)),
		models.EscapeMarkdownV2(fmt.Sprintf("🎯 Edge markets: %d", s.EdgeMarkets)),
		models.EscapeMarkdownV2(fmt.Sprintf("🕐 Last check: %s", lastCheck)),
		models.EscapeMarkdownV2(fmt.Sprintf("📬 Alerts sent today: %d", s.AlertsToday)),
		models.EscapeMarkdownV2(fmt.Sprintf("⚙️ Poll interval: %s", s.PollInterval)),
		models.EscapeMarkdownV2(fmt.Sprintf("⏱ Uptime: %s", s.Uptime.Round(time.Second))),
	}
	if !s.InitialScanDone {
		lines = append(lines, "", models.EscapeMarkdownV2("Initial scan still in progress."))
	}
	return strings.Join(lines, "\n")
}

func formatTrending(markets []models.Market) string {
	if len(markets) == 0 {
		return models.EscapeMarkdownV2("📈 No trending edge markets right now.")
	}
	if len(markets) > 5 {
		markets = markets[:5]
	}
	lines := []string{"📈 *Trending Edge Markets*", ""}
	for i, m := range markets {
		question := m.Question
		if r := []rune(question); len(r) > 80 {
			question = string(r[:80]) + "..."
		}
		lines = append(lines, fmt.Sprintf("*%d\\. %s*", i+1, models.EscapeMarkdownV2(question)))
		lines = append(lines, "   "+models.EscapeMarkdownV2(m.FormattedPrices()))
		lines = append(lines, "   "+models.EscapeMarkdownV2(fmt.Sprintf("💰 Vol 24h: $%.0f", m.Volume24h)))
		lines = append(lines, fmt.Sprintf("   🔗 [View](%s)", m.URL()))
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
