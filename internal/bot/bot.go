package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"linktrail/internal/service"
	"linktrail/internal/types"
)

type linkService interface {
	Create(ctx context.Context, req types.CreateLinkRequest) (*types.LinkView, error)
	GetBySlug(ctx context.Context, slug string) (*types.Link, error)
}

type statsService interface {
	Stats(ctx context.Context, linkID string) (*types.LinkStats, error)
}

type TelegramBot struct {
	tgBot     *tele.Bot
	shortener linkService
	analytics statsService
}

var ErrLinkNotValid = errors.New("link not valid")

func NewTelegramBot(tgToken string, shortener *service.Shortener, analytics *service.Analytics) (*TelegramBot, error) {
	pref := tele.Settings{
		Token:  tgToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		slog.Error("failed to initialize telegram bot", "error", err)
		return nil, err
	}

	b := &TelegramBot{
		tgBot:     bot,
		shortener: shortener,
		analytics: analytics,
	}

	return b, nil
}

func (b *TelegramBot) Start(ctx context.Context) error {
	slog.Info("Telegram bot started", "bot_username", b.tgBot.Me.Username)

	b.tgBot.Handle("/start", b.handleStart)
	b.tgBot.Handle("/stats", b.handleStats)
	b.tgBot.Handle(tele.OnText, b.handleMessage)

	go func() {
		<-ctx.Done()
		slog.Info("Telegram bot shutting down")
		b.tgBot.Stop()
	}()

	b.tgBot.Start()
	return nil
}

func (b *TelegramBot) handleStart(c tele.Context) error {
	slog.Debug("command /start received", "user_id", c.Sender().ID)
	return c.Send("Привіт! Я допоможу тобі скоротити довге посилання. Просто надішліть його мені.\n" +
		"Статистика посилання: /stats <slug>")
}

func (b *TelegramBot) handleMessage(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.Send(b.shorten(ctx, c.Sender().ID, c.Text()))
}

func (b *TelegramBot) handleStats(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.Send(b.statsFor(ctx, c.Sender().ID, strings.TrimSpace(c.Message().Payload)))
}

func (b *TelegramBot) shorten(ctx context.Context, senderID int64, raw string) string {
	if err := parseLink(raw); err != nil {
		slog.Warn("invalid link from chat", "url", raw, "error", err)
		return "Посилання повинно починатися з http:// або https:// і містити домен."
	}
	link, err := b.shortener.Create(ctx, types.CreateLinkRequest{URL: raw, Tags: []string{ownerTag(senderID)}})
	if err != nil {
		slog.Error("failed to create short link", "user_id", senderID, "error", err)
		return "Помилка при створенні посилання. Спробуйте ще раз"
	}
	return "Ось ваше нове скорочене посилання:\n" + link.ShortURL
}

// statsFor answers /stats. Only links the sender created through the bot
// are visible; anything else reads as not found.
func (b *TelegramBot) statsFor(ctx context.Context, senderID int64, slug string) string {
	if slug == "" {
		return "Використання: /stats <slug>"
	}
	link, err := b.shortener.GetBySlug(ctx, slug)
	if err != nil {
		if service.IsCode(err, service.CodeNotFound) {
			return "Посилання не знайдено."
		}
		slog.Error("failed to load link", "slug", slug, "error", err)
		return "Помилка при отриманні статистики. Спробуйте ще раз"
	}
	if !slices.Contains(link.Tags, ownerTag(senderID)) {
		slog.Warn("stats requested for a foreign link", "slug", slug, "user_id", senderID)
		return "Посилання не знайдено."
	}
	stats, err := b.analytics.Stats(ctx, link.ID)
	if err != nil {
		slog.Error("failed to load stats", "slug", slug, "error", err)
		return "Помилка при отриманні статистики. Спробуйте ще раз"
	}
	return formatStats(slug, stats)
}

// ownerTag marks links created by one Telegram user.
func ownerTag(senderID int64) string {
	return "telegram:" + strconv.FormatInt(senderID, 10)
}

// parseLink accepts absolute http(s) URLs only.
func parseLink(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return ErrLinkNotValid
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrLinkNotValid
	}
	return nil
}

func formatStats(slug string, stats *types.LinkStats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Статистика /%s\nВсього переходів: %d\n", slug, stats.TotalClicks)
	if len(stats.ClicksByCountry) > 0 {
		sb.WriteString("Країни:\n")
		for _, c := range firstN(stats.ClicksByCountry, 5) {
			fmt.Fprintf(&sb, "  %s: %d\n", c.Country, c.Count)
		}
	}
	if len(stats.TopReferrers) > 0 {
		sb.WriteString("Джерела:\n")
		for _, r := range firstN(stats.TopReferrers, 5) {
			fmt.Fprintf(&sb, "  %s: %d\n", r.Referrer, r.Count)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
