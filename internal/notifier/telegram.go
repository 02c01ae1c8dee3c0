package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"notice_bot/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

var kst = time.FixedZone("KST", 9*60*60)

type TelegramOptions struct {
	Token        string
	Channel      string
	LogChannel   string
	MessageDelay time.Duration
	// APIEndpoint - шаблон адреса Bot API; пусто означает api.telegram.org.
	APIEndpoint string
	Client      *http.Client
}

// Telegram публикует объявления в канал через Bot API.
type Telegram struct {
	api        *tgbotapi.BotAPI
	channel    string
	logChannel string
	limiter    *rate.Limiter
}

// NewTelegram авторизует бота (getMe) и настраивает темп отправки.
func NewTelegram(opts TelegramOptions) (*Telegram, error) {
	if opts.Token == "" {
		return nil, errors.New("telegram token required")
	}
	endpoint := opts.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	api, err := tgbotapi.NewBotAPIWithClient(opts.Token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	limit := rate.Inf
	if opts.MessageDelay > 0 {
		limit = rate.Every(opts.MessageDelay)
	}

	logger.Log.WithField("bot", api.Self.UserName).Info("Telegram bot authorized")
	return &Telegram{
		api:        api,
		channel:    opts.Channel,
		logChannel: opts.LogChannel,
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

// Send отправляет объявление в канал источника или в канал по умолчанию.
func (t *Telegram) Send(ctx context.Context, msg Message) error {
	ref := msg.Channel
	if ref == "" {
		ref = t.channel
	}

	cfg, err := chatMessage(ref, FormatMessage(msg))
	if err != nil {
		return &NotifyError{Retryable: false, Err: err}
	}
	cfg.ParseMode = tgbotapi.ModeHTML
	cfg.DisableWebPagePreview = true
	if msg.Notice.URL != "" {
		cfg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🔗 원문 보기", msg.Notice.URL)),
		)
	}

	return t.send(ctx, cfg)
}

// Alert пишет в служебный канал; без него только логирует.
func (t *Telegram) Alert(ctx context.Context, text string) error {
	if t.logChannel == "" {
		logger.Log.WithField("alert", text).Warn("No log channel configured, skipping alert")
		return nil
	}
	cfg, err := chatMessage(t.logChannel, text)
	if err != nil {
		return &NotifyError{Retryable: false, Err: err}
	}
	cfg.DisableWebPagePreview = true
	return t.send(ctx, cfg)
}

func (t *Telegram) send(ctx context.Context, cfg tgbotapi.MessageConfig) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return &NotifyError{Retryable: false, Err: err}
	}
	if _, err := t.api.Send(cfg); err != nil {
		return classify(err)
	}
	return nil
}

// chatMessage понимает и @username канала, и числовой chat id.
func chatMessage(ref, text string) (tgbotapi.MessageConfig, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "@") {
		return tgbotapi.NewMessageToChannel(ref, text), nil
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("invalid chat reference %q", ref)
	}
	return tgbotapi.NewMessage(id, text), nil
}

// classify: 429 и 5xx от Bot API, а также сбои транспорта временные; прочие ответы API окончательные.
func classify(err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		retry := apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
		return &NotifyError{
			Retryable:  retry,
			RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second,
			Err:        fmt.Errorf("telegram api %d: %w", apiErr.Code, err),
		}
	}
	return &NotifyError{Retryable: true, Err: err}
}

// FormatMessage собирает HTML-текст сообщения.
func FormatMessage(msg Message) string {
	n := msg.Notice
	category := Classify(n.Title)

	name := msg.SourceName
	if name == "" {
		name = n.SourceKey
	}

	var b strings.Builder
	b.WriteString(category.Emoji())
	b.WriteString(" <b>")
	b.WriteString(html.EscapeString(name))
	b.WriteString("</b>\n\n")
	if category != CategoryGeneral {
		b.WriteString("[" + category.Label() + "] ")
	}
	b.WriteString(html.EscapeString(n.Title))
	b.WriteString("\n\n📅 ")
	if n.PostedAt != nil {
		b.WriteString(n.PostedAt.In(kst).Format("2006-01-02"))
	} else {
		b.WriteString("날짜 미상")
	}
	b.WriteString(" | ✍️ ")
	if n.Author != "" {
		b.WriteString(html.EscapeString(n.Author))
	} else {
		b.WriteString("작성자 미상")
	}
	return b.String()
}
