// Package notify publishes scan digests to Telegram.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/dss-scanner/internal/models"
)

// DefaultMaxItems caps the pairs listed per signal side.
const DefaultMaxItems = 20

// MessageSender is the part of *bot.Bot the notifier uses.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
}

// TelegramNotifier sends a Long/Short digest of each scan to one chat.
type TelegramNotifier struct {
	sender   MessageSender
	chatID   int64
	maxItems int
	logger   *logrus.Logger
}

// NewTelegramNotifier creates a notifier backed by a bot for token.
func NewTelegramNotifier(token string, chatID int64, logger *logrus.Logger) (*TelegramNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is required")
	}
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return NewTelegramNotifierWithSender(b, chatID, logger), nil
}

// NewTelegramNotifierWithSender creates a notifier around sender.
func NewTelegramNotifierWithSender(sender MessageSender, chatID int64, logger *logrus.Logger) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID, maxItems: DefaultMaxItems, logger: logger}
}

// Publish implements services.ResultSink. Runs without a Long or Short pair send nothing.
func (n *TelegramNotifier) Publish(ctx context.Context, result *models.ScanResult) error {
	if result == nil {
		return nil
	}
	counts := result.SignalCounts()
	if counts[models.SignalLong] == 0 && counts[models.SignalShort] == 0 {
		n.logger.WithField("run_id", result.RunID).Debug("No directional signals, skipping Telegram digest")
		return nil
	}

	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      FormatDigest(result, n.maxItems),
		ParseMode: tgmodels.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram digest: %w", err)
	}

	n.logger.WithFields(logrus.Fields{
		"run_id": result.RunID,
		"long":   counts[models.SignalLong],
		"short":  counts[models.SignalShort],
	}).Info("Telegram digest sent")
	return nil
}

// FormatDigest lists Long and Short pairs in rank order, at most maxItems each.
func FormatDigest(result *models.ScanResult, maxItems int) string {
	labels := make([]string, len(result.Timeframes))
	for i, tf := range result.Timeframes {
		labels[i] = tf.Label
	}

	var b strings.Builder
	b.WriteString("📊 *DSS Bressert Scan*\n")
	fmt.Fprintf(&b, "Timeframes: %s\n", strings.Join(labels, ", "))

	writeSide := func(title string, signal models.Signal) {
		var pairs []string
		for _, row := range result.Rows {
			if row.Signal == signal {
				pairs = append(pairs, digestLine(row, result.Timeframes))
			}
		}
		if len(pairs) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s (%d)\n", title, len(pairs))
		for i, line := range pairs {
			if maxItems > 0 && i == maxItems {
				fmt.Fprintf(&b, "...and %d more\n", len(pairs)-maxItems)
				break
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	writeSide("🟢 *Long*", models.SignalLong)
	writeSide("🔴 *Short*", models.SignalShort)
	return b.String()
}

func digestLine(row models.SymbolRow, timeframes []models.Timeframe) string {
	readings := make([]string, len(timeframes))
	for i, tf := range timeframes {
		readings[i] = tf.Label + " " + row.Label(tf.Label).ReadingText()
	}
	return fmt.Sprintf("%d. %s (%s)", row.RankIndex+1, row.Pair, strings.Join(readings, ", "))
}
