package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/chemtutor/chembot/internal/service"
	"github.com/chemtutor/chembot/pkg/config"
	appErrors "github.com/chemtutor/chembot/pkg/errors"
	"github.com/chemtutor/chembot/pkg/storage"
)

// Bot wires the Telegram transport to the tutoring services. One
// goroutine consumes the long-polling update channel; handlers are
// synchronous, matching Telegram's per-chat ordering.
type Bot struct {
	api        *tgbotapi.BotAPI
	students   *service.StudentService
	lectures   *service.LectureService
	categories *service.CategoryService
	files      *storage.LectureStore
	sessions   *SessionStore
	admins     map[int64]bool
	logger     *zap.Logger
}

// Deps collects the services the bot depends on.
type Deps struct {
	Students   *service.StudentService
	Lectures   *service.LectureService
	Categories *service.CategoryService
	Files      *storage.LectureStore
	Sessions   *SessionStore
}

// New authorizes against the Telegram API and builds the bot.
func New(cfg *config.Config, deps Deps, logger *zap.Logger) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is not configured")
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram authorization: %w", err)
	}

	admins := make(map[int64]bool, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = true
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bot{
		api:        api,
		students:   deps.Students,
		lectures:   deps.Lectures,
		categories: deps.Categories,
		files:      deps.Files,
		sessions:   deps.Sessions,
		admins:     admins,
		logger:     logger,
	}, nil
}

// Username returns the authorized bot account name.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic in update handler", zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Document != nil:
		b.handleDocument(ctx, update.Message)
	case update.Message != nil && update.Message.Text != "":
		b.handleText(ctx, update.Message)
	}
}

// callbackCtx bundles the message coordinates a callback handler edits.
type callbackCtx struct {
	query     *tgbotapi.CallbackQuery
	chatID    int64
	messageID int
	userID    int64
	sess      *Session
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}

	userID := query.From.ID
	sess := b.sessions.Get(userID)
	cb := &callbackCtx{
		query:     query,
		chatID:    query.Message.Chat.ID,
		messageID: query.Message.MessageID,
		userID:    userID,
		sess:      sess,
	}

	action, args := decodeToken(query.Data)
	b.request(tgbotapi.NewCallback(query.ID, ""))

	isAdmin := b.admins[userID]
	viewing := isAdmin && sess.ViewStudentID != 0

	switch action {
	case actNoop:
		return
	case actExitView:
		if viewing {
			sess.ViewStudentID = 0
			b.showAdminMenu(cb)
		}
		return
	case actBackAdmin:
		if isAdmin {
			sess.ViewStudentID = 0
			b.showAdminMenu(cb)
		}
		return
	case actBackMenu:
		b.showMainMenu(ctx, cb)
		return
	}

	if isAdmin {
		if viewing && b.handleStudentAction(ctx, cb, action, args) {
			return
		}
		b.handleAdminAction(ctx, cb, action, args)
		return
	}

	b.handleStudentAction(ctx, cb, action, args)
}

// targetStudent resolves whose record a student-side screen shows,
// honoring admin impersonation.
func (b *Bot) targetStudent(userID int64, sess *Session) int64 {
	if b.admins[userID] && sess.ViewStudentID != 0 {
		return sess.ViewStudentID
	}
	return userID
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("telegram send failed", zap.Error(err))
	}
}

func (b *Bot) request(c tgbotapi.Chattable) {
	if _, err := b.api.Request(c); err != nil {
		b.logger.Error("telegram request failed", zap.Error(err))
	}
}

func (b *Bot) edit(cb *callbackCtx, text string, markup tgbotapi.InlineKeyboardMarkup) {
	b.send(tgbotapi.NewEditMessageTextAndMarkup(cb.chatID, cb.messageID, text, markup))
}

func (b *Bot) editHTML(cb *callbackCtx, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewEditMessageTextAndMarkup(cb.chatID, cb.messageID, text, markup)
	msg.ParseMode = tgbotapi.ModeHTML
	b.send(msg)
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) replyMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	b.send(msg)
}

func (b *Bot) alert(queryID, text string) {
	b.request(tgbotapi.NewCallbackWithAlert(queryID, text))
}

func backRow(data string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", data),
	)
}

func backMarkup(data string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(backRow(data))
}

// showMainMenu edits the message into the caller's top menu, keeping
// the impersonation banner when an admin browses as a student.
func (b *Bot) showMainMenu(ctx context.Context, cb *callbackCtx) {
	isAdmin := b.admins[cb.userID]

	if isAdmin && cb.sess.ViewStudentID != 0 {
		student, err := b.students.Get(ctx, cb.sess.ViewStudentID)
		if err != nil {
			cb.sess.ViewStudentID = 0
			b.showAdminMenu(cb)
			return
		}
		b.showImpersonatedMenu(cb, student.Username)
		return
	}
	if isAdmin {
		b.showAdminMenu(cb)
		return
	}
	b.showStudentMenu(cb)
}

func (b *Bot) showAdminMenu(cb *callbackCtx) {
	b.edit(cb, "🔧 Меню администратора:", adminMenuMarkup())
}

func (b *Bot) showStudentMenu(cb *callbackCtx) {
	b.edit(cb, "🔧 Меню ученика:", studentMenuMarkup())
}

func (b *Bot) showImpersonatedMenu(cb *callbackCtx, username string) {
	text := fmt.Sprintf("🔍 Просмотр как ученик: <b>%s</b>\n\n🔧 Меню ученика:", username)
	b.editHTML(cb, text, impersonatedMenuMarkup())
}

func adminMenuMarkup() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Ученики", actAdminStudents),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📚 Лекции", actAdminLectures),
		),
	)
}

func studentMenuMarkup() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Моё расписание", actStudentSchedule),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📚 Доступные лекции", actStudentLectures),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📓 Домашнее задание", actStudentHomework),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Мои настройки", actStudentSettings),
		),
	)
}

func impersonatedMenuMarkup() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Моё расписание", actStudentSchedule),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📚 Доступные лекции", actStudentLectures),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📓 Домашнее задание", actStudentHomework),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Вернуться в админ-панель", actExitView),
		),
	)
}

func isNotFound(err error) bool {
	return errors.Is(err, appErrors.ErrNotFound)
}
