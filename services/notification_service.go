package services

import (
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"backend_firerms/models"
)

// NotificationService отправляет уведомления дежурному через Telegram.
// Если бот не настроен, отправка тихо пропускается.
type NotificationService struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *log.Logger
}

// NewNotificationService создает новый экземпляр NotificationService.
// Пустой токен означает, что уведомления отключены.
func NewNotificationService(botToken, chatID string, logger *log.Logger) *NotificationService {
	ns := &NotificationService{logger: logger}

	if botToken == "" || chatID == "" {
		if logger != nil {
			logger.Println("Telegram не настроен, уведомления отключены")
		}
		return ns
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		if logger != nil {
			logger.Printf("Неверный Telegram chat ID: %s", chatID)
		}
		return ns
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		if logger != nil {
			logger.Printf("Ошибка создания Telegram бота: %v", err)
		}
		return ns
	}
	bot.Debug = false

	log.Printf("✅ Telegram бот авторизован: %s", bot.Self.UserName)

	ns.bot = bot
	ns.chatID = chatIDInt
	return ns
}

// IsEnabled проверяет, настроена ли отправка уведомлений
func (ns *NotificationService) IsEnabled() bool {
	return ns.bot != nil
}

// SendAlert отправляет уведомление о проблеме с имуществом или запасами
func (ns *NotificationService) SendAlert(alert models.Alert) {
	severityIcons := map[string]string{
		"low":      "ℹ️",
		"medium":   "⚠️",
		"high":     "🔶",
		"critical": "🚨",
	}
	icon, ok := severityIcons[alert.Severity]
	if !ok {
		icon = "⚠️"
	}

	message := fmt.Sprintf("%s <b>%s</b>\n%s", icon, alert.Title, alert.Description)
	ns.send(message)
}

// SendPortalRequestNotice уведомляет о новом обращении с портала
func (ns *NotificationService) SendPortalRequestNotice(request models.PortalRequest) {
	message := fmt.Sprintf("📨 <b>Новое обращение %s</b>\n%s\nОт: %s",
		request.TrackingNumber, request.Subject, request.RequesterName)
	ns.send(message)
}

// send отправляет сообщение в настроенный чат
func (ns *NotificationService) send(message string) {
	if ns.bot == nil {
		return
	}

	msg := tgbotapi.NewMessage(ns.chatID, message)
	msg.ParseMode = tgbotapi.ModeHTML

	if _, err := ns.bot.Send(msg); err != nil {
		if ns.logger != nil {
			ns.logger.Printf("Ошибка отправки Telegram уведомления: %v", err)
		}
	}
}
