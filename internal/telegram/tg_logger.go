package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/set-night/primeminister/internal/config"
	"github.com/set-night/primeminister/internal/domain"
)

// TelegramLogger mirrors operational events into a forum chat, one topic
// per event type. It is a no-op when LOG_TELEGRAM_CHAT_ID is unset.
type TelegramLogger struct {
	bot Sender
	cfg *config.Config
}

func NewTelegramLogger(b Sender, cfg *config.Config) *TelegramLogger {
	return &TelegramLogger{bot: b, cfg: cfg}
}

type LogType string

const (
	LogTypeError   LogType = "error"
	LogTypeSession LogType = "session"
)

// SetSender binds the bot once it exists. Call before the bot starts.
func (l *TelegramLogger) SetSender(b Sender) { l.bot = b }

func (l *TelegramLogger) Log(logType LogType, message string) {
	if l == nil || l.bot == nil || l.cfg.LogTelegramChatID == 0 {
		return
	}

	if len([]rune(message)) > config.MaxTelegramMessageLen {
		message = string([]rune(message)[:config.MaxTelegramMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := l.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.cfg.LogTelegramChatID,
		Text:            message,
		MessageThreadID: l.topicID(logType),
	})
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) LogError(err error, context string) {
	msg := fmt.Sprintf("❌ Error\n\nContext: %s\nError: %s\nTime: %s",
		context, err.Error(), time.Now().Format("2006-01-02 15:04:05"))
	l.Log(LogTypeError, msg)
}

// LogSession reports a closed session: mode, outcome and cost.
func (l *TelegramLogger) LogSession(chatID int64, rec *domain.Record) {
	status := "✅ Session"
	if rec.Failed() {
		status = "❌ Failed session"
	}
	msg := fmt.Sprintf("%s\n\nChat: %d\nSession: %s\nMode: %s\nResponses: %d\nVotes: %d\nTie broken: %t\nCost: $%s",
		status, chatID, rec.SessionUUID, rec.Mode,
		rec.Metadata.RespondingMembers, rec.Metadata.TotalVotesCast,
		rec.Metadata.TieBrokenByPM, rec.Metadata.Usage.TotalCost.StringFixed(4))
	if rec.Failed() {
		msg += fmt.Sprintf("\nError (%s): %s", rec.Metadata.ErrorType, rec.Metadata.Error)
	}
	l.Log(LogTypeSession, msg)
}

// LogAuditFailure reports a record the audit store did not accept.
func (l *TelegramLogger) LogAuditFailure(rec *domain.Record, err error) {
	l.LogError(err, fmt.Sprintf("audit append for session %s", rec.SessionUUID))
}

func (l *TelegramLogger) topicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return l.cfg.LogTopicError
	case LogTypeSession:
		return l.cfg.LogTopicSession
	default:
		return 0
	}
}
