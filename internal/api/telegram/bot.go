// Package telegram: чат-бот для диагностики болезней растений по фото.
package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "farm-assistant/internal/application"
	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/logger"
)

const (
	msgStart = `👋 Привет! Я помогаю распознавать болезни растений.

📸 Отправьте фото листа, и я подскажу диагноз и лечение.

📋 Команды:
/check — начать диагностику
/history — последние диагностики
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото поражённого листа
2️⃣ Бот определит болезнь
3️⃣ Вы получите диагноз, уверенность и рекомендации по лечению

💡 Рекомендации:
• Снимайте при дневном свете
• В кадре должен быть один лист
• Фото должно быть чётким

📋 Команды:
/check — начать диагностику
/history — последние диагностики
/cancel — отменить операцию`

	msgAwaitingPhoto   = "📸 Отправьте фото листа для диагностики."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для новой диагностики."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото листа растения."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Анализирую изображение..."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgHistoryEmpty    = "📭 Диагностик пока не было."
	msgHistoryError    = "⚠️ Не удалось загрузить историю."
)

// historyLimit: сколько последних записей показывает /history.
const historyLimit = 5

// Detector: диагностика и журнал, нужные боту.
type Detector interface {
	Classify(ctx context.Context, data []byte) (*entity.DetectionRecord, error)
	History(ctx context.Context) ([]entity.DetectionRecord, error)
}

// Downloader скачивает файл по прямой ссылке.
type Downloader interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// botAPI: используемая часть tgbotapi.BotAPI.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot представляет Telegram-бота
type Bot struct {
	lggr     logger.Logger
	api      botAPI
	users    *app.UserService
	detector Detector
	files    Downloader
}

// NewBot авторизуется по токену и создаёт бота.
func NewBot(lggr logger.Logger, token string, users *app.UserService, detector Detector, files Downloader) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	lggr = lggr.Named("telegram")
	lggr.Infow("Authorized on account", "username", api.Self.UserName)

	return newBot(lggr, api, users, detector, files), nil
}

func newBot(lggr logger.Logger, api botAPI, users *app.UserService, detector Detector, files Downloader) *Bot {
	return &Bot{
		lggr:     lggr,
		api:      api,
		users:    users,
		detector: detector,
		files:    files,
	}
}

// Run обрабатывает обновления до отмены ctx.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	var err error
	switch msg.Command() {
	case "start":
		_, err = b.users.Cancel(ctx, userID, chatID)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		_, err = b.users.BeginCheck(ctx, userID, chatID)
		b.sendMessage(chatID, msgAwaitingPhoto)

	case "history":
		records, herr := b.detector.History(ctx)
		if herr != nil {
			b.lggr.Errorw("Failed to load history", "err", herr)
			b.sendMessage(chatID, msgHistoryError)
			return
		}
		b.sendMessage(chatID, formatHistory(records, historyLimit))

	case "cancel":
		_, err = b.users.Cancel(ctx, userID, chatID)
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}

	if err != nil {
		b.lggr.Errorw("Failed to update user state", "userID", userID, "err", err)
	}
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	if _, err := b.users.SetState(ctx, userID, chatID, entity.StateProcessing); err != nil {
		b.lggr.Errorw("Failed to update user state", "userID", userID, "err", err)
	}
	b.sendMessage(chatID, msgProcessing)

	// самое большое разрешение идёт последним
	photo := msg.Photo[len(msg.Photo)-1]

	rec, err := b.classifyPhoto(ctx, photo.FileID)
	if err != nil {
		b.lggr.Errorw("Failed to classify photo", "userID", userID, "fileID", photo.FileID, "err", err)
		b.sendMessage(chatID, msgProcessingError)
		if _, err := b.users.Cancel(ctx, userID, chatID); err != nil {
			b.lggr.Errorw("Failed to update user state", "userID", userID, "err", err)
		}
		return
	}

	if _, err := b.users.FinishDetection(ctx, userID, chatID, rec.ID); err != nil {
		b.lggr.Errorw("Failed to update user state", "userID", userID, "err", err)
	}
	b.sendMessage(chatID, formatDetection(rec))
}

func (b *Bot) classifyPhoto(ctx context.Context, fileID string) (*entity.DetectionRecord, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	data, err := b.files.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}

	return b.detector.Classify(ctx, data)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.lggr.Errorw("Failed to send message", "chatID", chatID, "err", err)
	}
}

func displayName(label string) string {
	return strings.ReplaceAll(label, "_", " ")
}

func formatDetection(rec *entity.DetectionRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🌿 Диагноз: %s\n", displayName(rec.Disease))
	fmt.Fprintf(&sb, "📊 Уверенность: %.2f%%\n", rec.Confidence)

	if len(rec.Alternatives) > 0 {
		sb.WriteString("\nДругие варианты:\n")
		for _, alt := range rec.Alternatives {
			fmt.Fprintf(&sb, "• %s: %.2f%%\n", displayName(alt.Label), alt.Confidence)
		}
	}

	fmt.Fprintf(&sb, "\n🩺 Симптомы: %s\n", rec.Symptoms)
	fmt.Fprintf(&sb, "💊 Лечение: %s\n", rec.Treatment)
	fmt.Fprintf(&sb, "🛡 Профилактика: %s\n", rec.Prevention)

	if len(rec.Supplements) > 0 {
		sb.WriteString("\nПрепараты:\n")
		for _, s := range rec.Supplements {
			fmt.Fprintf(&sb, "• %s: %s\n", s.Name, s.Application)
		}
	}
	if rec.Recommendations != "" {
		fmt.Fprintf(&sb, "\n%s\n", rec.Recommendations)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// formatHistory показывает последние limit записей, новые сверху.
func formatHistory(records []entity.DetectionRecord, limit int) string {
	if len(records) == 0 {
		return msgHistoryEmpty
	}

	var sb strings.Builder
	sb.WriteString("🗂 Последние диагностики:\n")
	for i := len(records) - 1; i >= 0 && i >= len(records)-limit; i-- {
		r := records[i]
		fmt.Fprintf(&sb, "• %s %s (%.2f%%)\n", r.Timestamp.Format("2006-01-02 15:04"), displayName(r.Disease), r.Confidence)
	}

	return strings.TrimRight(sb.String(), "\n")
}
