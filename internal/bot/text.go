package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/chemtutor/chembot/internal/service"
)

var (
	errStudentInputFormat = errors.New("expected: user_id username schedule")
	errStudentInputID     = errors.New("user_id must be numeric")
)

// parseStudentInput splits "user_id username schedule" where the
// schedule may itself contain spaces.
func parseStudentInput(text string) (int64, string, string, error) {
	fields := strings.Fields(text)
	if len(fields) < 3 {
		return 0, "", "", errStudentInputFormat
	}

	userID, err := parseStudentID(fields[0])
	if err != nil {
		return 0, "", "", errStudentInputID
	}

	return userID, fields[1], strings.Join(fields[2:], " "), nil
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	sess := b.sessions.Get(userID)
	if sess.Action == "" {
		return
	}

	if b.admins[userID] {
		b.handleAdminText(ctx, msg, sess)
		return
	}
	b.handleStudentText(ctx, msg, sess)
}

func (b *Bot) handleAdminText(ctx context.Context, msg *tgbotapi.Message, sess *Session) {
	chatID := msg.Chat.ID
	text := msg.Text

	switch sess.Action {
	case pendingAddStudent:
		b.addStudentFromText(ctx, chatID, text, sess)

	case pendingLectureName:
		sess.LectureName = text
		sess.Action = pendingLectureFile
		b.reply(chatID, fmt.Sprintf("📤 Отправьте файл лекции '%s'", text))

	case pendingCategoryForNew:
		category := strings.TrimSpace(text)
		if err := b.categories.Add(ctx, category); err != nil {
			b.reply(chatID, "❌ Ошибка при добавлении папки")
			return
		}
		sess.LectureCategory = category
		sess.Action = pendingLectureName
		b.replyMarkup(chatID,
			fmt.Sprintf("✅ Папка '%s' создана!\n\nВведите название лекции:", category),
			backMarkup(actAdminAddLectureNew))

	case pendingCategory:
		category := strings.TrimSpace(text)
		if err := b.categories.Add(ctx, category); err != nil {
			b.reply(chatID, "❌ Ошибка при добавлении папки")
		} else {
			b.replyMarkup(chatID, fmt.Sprintf("✅ Папка '%s' добавлена!", category), backMarkup(actAdminCategories))
		}
		sess.Action = ""

	case pendingStudentSchedule:
		studentID := sess.EditStudentID
		student, err := b.students.Get(ctx, studentID)
		if err != nil {
			b.reply(chatID, "❌ Ученик не найден")
		} else if err := b.students.UpdateSchedule(ctx, studentID, text); err != nil {
			b.logger.Error("failed to update schedule", zap.Int64("user_id", studentID), zap.Error(err))
			b.reply(chatID, "❌ Ошибка при обновлении расписания")
		} else {
			b.reply(chatID, fmt.Sprintf("✅ Расписание ученика %s обновлено!\n\n📅 Новое расписание: %s",
				student.Username, text))
			b.replyMarkup(chatID, fmt.Sprintf("✏️ Редактирование %s:", student.Username), editStudentMarkup(studentID))
		}
		sess.Action = ""
		sess.EditStudentID = 0

	case pendingStudentHomework:
		studentID := sess.EditStudentID
		student, err := b.students.Get(ctx, studentID)
		if err != nil {
			b.reply(chatID, "❌ Ученик не найден")
		} else if err := b.students.UpdateHomework(ctx, studentID, text); err != nil {
			b.logger.Error("failed to update homework", zap.Int64("user_id", studentID), zap.Error(err))
			b.reply(chatID, "❌ Ошибка при обновлении ДЗ")
		} else {
			b.reply(chatID, fmt.Sprintf("✅ ДЗ ученика %s обновлено!\n\n📓 Новое ДЗ: %s",
				student.Username, text))
			b.replyMarkup(chatID, fmt.Sprintf("✏️ Редактирование %s:", student.Username), editStudentMarkup(studentID))
		}
		sess.Action = ""
		sess.EditStudentID = 0

	case pendingOwnSchedule:
		// reached when the admin edits the schedule while impersonating
		b.updateOwnSchedule(ctx, chatID, b.targetStudent(msg.From.ID, sess), text, sess)
	}
}

func (b *Bot) handleStudentText(ctx context.Context, msg *tgbotapi.Message, sess *Session) {
	if sess.Action == pendingOwnSchedule {
		b.updateOwnSchedule(ctx, msg.Chat.ID, msg.From.ID, msg.Text, sess)
	}
}

func (b *Bot) addStudentFromText(ctx context.Context, chatID int64, text string, sess *Session) {
	userID, username, schedule, err := parseStudentInput(text)
	switch {
	case errors.Is(err, errStudentInputFormat):
		b.replyMarkup(chatID,
			"❌ Неверный формат.\n\n"+
				"Используйте: user_id username расписание\n\n"+
				"Пример: 123456789 vasya пн,ср,пт 15:00",
			backMarkup(actAdminStudents))
		return
	case errors.Is(err, errStudentInputID):
		b.replyMarkup(chatID,
			"❌ user_id должен быть числом!\n\n"+
				"Пример: 123456789 vasya пн,ср,пт 15:00",
			backMarkup(actAdminStudents))
		return
	}

	_, err = b.students.Create(ctx, service.CreateStudentRequest{
		UserID:   userID,
		Username: username,
		Schedule: schedule,
	})
	if err != nil {
		if isConflict(err) {
			b.replyMarkup(chatID,
				fmt.Sprintf("⚠️ Ученик с ID %d уже существует", userID),
				backMarkup(actAdminStudents))
		} else {
			b.logger.Error("failed to create student", zap.Int64("user_id", userID), zap.Error(err))
			b.replyMarkup(chatID, "❌ Ошибка при добавлении ученика", backMarkup(actAdminStudents))
		}
		sess.Action = ""
		return
	}

	b.replyMarkup(chatID,
		fmt.Sprintf("✅ Ученик @%s добавлен!\n\n"+
			"📊 Данные:\n"+
			"  • User ID: %d\n"+
			"  • Username: @%s\n"+
			"  • Расписание: %s",
			username, userID, username, schedule),
		backMarkup(actAdminStudents))
	sess.Action = ""
}

func (b *Bot) updateOwnSchedule(ctx context.Context, chatID, studentID int64, text string, sess *Session) {
	if err := b.students.UpdateSchedule(ctx, studentID, text); err != nil {
		b.logger.Error("failed to update schedule", zap.Int64("user_id", studentID), zap.Error(err))
		b.replyMarkup(chatID, "❌ Ошибка при обновлении расписания", backMarkup(actStudentSettings))
	} else {
		b.replyMarkup(chatID,
			fmt.Sprintf("✅ Расписание обновлено!\n\n📅 Новое расписание: %s", text),
			backMarkup(actStudentSettings))
	}
	sess.Action = ""
}

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	if !b.admins[userID] {
		return
	}

	sess := b.sessions.Get(userID)
	if sess.Action != pendingLectureFile || sess.LectureName == "" {
		return
	}

	doc := msg.Document
	chatID := msg.Chat.ID

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		b.logger.Error("failed to resolve file url", zap.String("file_id", doc.FileID), zap.Error(err))
		b.reply(chatID, "❌ Не удалось загрузить файл")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		b.reply(chatID, "❌ Не удалось загрузить файл")
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		b.logger.Error("failed to download file", zap.Error(err))
		b.reply(chatID, "❌ Не удалось загрузить файл")
		return
	}
	defer resp.Body.Close() //nolint:errcheck

	path, err := b.files.SaveStream(doc.FileName, resp.Body)
	if err != nil {
		b.logger.Error("failed to store file", zap.String("filename", doc.FileName), zap.Error(err))
		b.reply(chatID, "❌ Не удалось сохранить файл")
		return
	}

	lecture, err := b.lectures.Add(ctx, service.AddLectureRequest{
		Name:     sess.LectureName,
		Filename: doc.FileName,
		Filepath: path,
		Category: sess.LectureCategory,
	})
	if err != nil {
		b.logger.Error("failed to register lecture", zap.String("name", sess.LectureName), zap.Error(err))
		b.reply(chatID, "❌ Ошибка при добавлении лекции")
		return
	}

	b.replyMarkup(chatID,
		fmt.Sprintf("✅ Лекция '%s' добавлена в папку '%s'!", lecture.Name, lecture.Category),
		backMarkup(actAdminLectures))
	sess.ClearPending()
}
