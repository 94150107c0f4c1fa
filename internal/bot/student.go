package bot

import (
	"context"
	"fmt"
	"sort"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/chemtutor/chembot/internal/models"
)

// handleStudentAction serves the student-side screens. It reports
// whether the action belonged to this set so impersonating admins can
// fall through to the admin panel otherwise.
func (b *Bot) handleStudentAction(ctx context.Context, cb *callbackCtx, action string, args []string) bool {
	switch action {
	case actStudentSchedule:
		b.showSchedule(ctx, cb)
	case actStudentHomework:
		b.showHomework(ctx, cb)
	case actStudentLectures:
		b.showLectureFolders(ctx, cb, false)
	case actStudentLectureCat:
		if len(args) == 1 {
			b.showFolderLectures(ctx, cb, args[0], false)
		}
	case actStudentSettings:
		b.showSettings(cb)
	case actStudentManage:
		b.showLectureFolders(ctx, cb, true)
	case actStudentManageCat:
		if len(args) == 1 {
			b.showFolderLectures(ctx, cb, args[0], true)
		}
	case actStudentEditSchedule:
		b.promptOwnSchedule(cb)
	case actDownloadLecture:
		if len(args) == 1 {
			b.deliverLecture(ctx, cb, args[0])
		}
	case actDropLecture:
		if len(args) == 1 {
			b.dropLecture(ctx, cb, args[0])
		}
	default:
		return false
	}
	return true
}

func (b *Bot) showSchedule(ctx context.Context, cb *callbackCtx) {
	schedule := "Расписание не установлено"
	if student, err := b.students.Get(ctx, b.targetStudent(cb.userID, cb.sess)); err == nil && student.Schedule != "" {
		schedule = student.Schedule
	}
	b.edit(cb, "📅 Ваше расписание:\n"+schedule, backMarkup(actBackMenu))
}

func (b *Bot) showHomework(ctx context.Context, cb *callbackCtx) {
	homework := "Домашнее задание не установлено"
	if student, err := b.students.Get(ctx, b.targetStudent(cb.userID, cb.sess)); err == nil && student.Homework != "" {
		homework = student.Homework
	}
	b.edit(cb, "📓 Домашнее задание:\n"+homework, backMarkup(actBackMenu))
}

func (b *Bot) showSettings(cb *callbackCtx) {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Редактировать расписание", actStudentEditSchedule),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📚 Управлять лекциями", actStudentManage),
		),
		backRow(actBackMenu),
	)
	b.edit(cb, "⚙️ Мои настройки:", markup)
}

func (b *Bot) promptOwnSchedule(cb *callbackCtx) {
	cb.sess.Action = pendingOwnSchedule
	b.edit(cb,
		"📝 Введите новое расписание:\n\n"+
			"Примеры:\n"+
			"  пн,ср,пт 15:00-16:00\n"+
			"  вт,чт 17:00\n"+
			"  пн-пт 10:00-11:00",
		backMarkup(actStudentSettings))
}

// folders groups the student's granted lectures by category, skipping
// records that no longer resolve.
func (b *Bot) folders(ctx context.Context, student *models.Student) (map[string][]*models.Lecture, error) {
	result := make(map[string][]*models.Lecture)
	for _, id := range student.Lectures {
		lecture, err := b.lectures.Get(ctx, id)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		result[lecture.Category] = append(result[lecture.Category], lecture)
	}
	return result, nil
}

func (b *Bot) showLectureFolders(ctx context.Context, cb *callbackCtx, manage bool) {
	backData := actBackMenu
	if manage {
		backData = actStudentSettings
	}

	student, err := b.students.Get(ctx, b.targetStudent(cb.userID, cb.sess))
	if err != nil {
		b.edit(cb, "❌ Данные ученика не найдены", backMarkup(backData))
		return
	}

	if len(student.Lectures) == 0 {
		text := "📭 У вас нет доступных лекций"
		if manage {
			text = "📭 У вас нет лекций"
		}
		b.edit(cb, text, backMarkup(backData))
		return
	}

	grouped, err := b.folders(ctx, student)
	if err != nil {
		b.logger.Error("failed to group lectures", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке лекций", backMarkup(backData))
		return
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	folderAction := actStudentLectureCat
	if manage {
		folderAction = actStudentManageCat
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, name := range names {
		label := fmt.Sprintf("🔧 %s (%d)", name, len(grouped[name]))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, encodeToken(folderAction, models.CategoryToken(name))),
		))
	}
	rows = append(rows, backRow(backData))

	text := "📚 Папки с лекциями:"
	if manage {
		text = "📚 Управление лекциями по папкам:\n\nВыберите папку чтобы удалить лекции:"
	}
	b.edit(cb, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) showFolderLectures(ctx context.Context, cb *callbackCtx, token string, manage bool) {
	backData := actStudentLectures
	if manage {
		backData = actStudentManage
	}

	category, err := b.categories.Resolve(ctx, token)
	if err != nil {
		b.edit(cb, "❌ Папка не найдена", backMarkup(backData))
		return
	}

	student, err := b.students.Get(ctx, b.targetStudent(cb.userID, cb.sess))
	if err != nil {
		b.edit(cb, "❌ Данные ученика не найдены", backMarkup(backData))
		return
	}

	grouped, err := b.folders(ctx, student)
	if err != nil {
		b.logger.Error("failed to group lectures", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке лекций", backMarkup(backData))
		return
	}

	lectures := grouped[category]
	if len(lectures) == 0 {
		text := fmt.Sprintf("📭 В папке '%s' нет лекций", category)
		if manage {
			text = fmt.Sprintf("📭 В папке '%s' нет ваших лекций", category)
		}
		b.edit(cb, text, backMarkup(backData))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, lecture := range lectures {
		if manage {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗑️ "+lecture.Name, encodeToken(actDropLecture, lecture.ID)),
			))
		} else {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📚 "+lecture.Name, encodeToken(actDownloadLecture, lecture.ID)),
			))
		}
	}
	rows = append(rows, backRow(backData))

	text := fmt.Sprintf("📚 Лекции в папке '%s':", category)
	if manage {
		text += "\n\nНажмите на лекцию чтобы удалить:"
	}
	b.edit(cb, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) deliverLecture(ctx context.Context, cb *callbackCtx, lectureID string) {
	lecture, err := b.lectures.Get(ctx, lectureID)
	if err != nil {
		b.alert(cb.query.ID, "❌ Лекция не найдена")
		return
	}

	if lecture.File.Filepath == "" || !b.files.Exists(lecture.File.Filepath) {
		b.alert(cb.query.ID, "❌ Файл не найден")
		return
	}

	file, err := b.files.Open(lecture.File.Filepath)
	if err != nil {
		b.logger.Error("failed to open lecture file",
			zap.String("lecture_id", lectureID), zap.Error(err))
		b.alert(cb.query.ID, "❌ Файл не найден")
		return
	}
	defer file.Close() //nolint:errcheck

	doc := tgbotapi.NewDocument(cb.chatID, tgbotapi.FileReader{
		Name:   lecture.File.Filename,
		Reader: file,
	})
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Error("failed to send lecture file",
			zap.String("lecture_id", lectureID), zap.Error(err))
		b.alert(cb.query.ID, "❌ Не удалось отправить файл")
		return
	}

	b.edit(cb, "✅ Файл загружен", backMarkup(actStudentLectures))
}

func (b *Bot) dropLecture(ctx context.Context, cb *callbackCtx, lectureID string) {
	studentID := b.targetStudent(cb.userID, cb.sess)

	student, err := b.students.Get(ctx, studentID)
	if err != nil || !student.HasLecture(lectureID) {
		b.alert(cb.query.ID, "❌ Лекция не найдена")
		return
	}

	lectureName := "Неизвестная лекция"
	if lecture, err := b.lectures.Get(ctx, lectureID); err == nil {
		lectureName = lecture.Name
	}

	if err := b.students.Revoke(ctx, studentID, lectureID); err != nil {
		b.logger.Error("failed to drop lecture",
			zap.Int64("user_id", studentID), zap.String("lecture_id", lectureID), zap.Error(err))
		b.alert(cb.query.ID, "❌ Ошибка при удалении лекции")
		return
	}

	b.edit(cb, fmt.Sprintf("✅ Лекция '%s' удалена из вашего списка", lectureName), backMarkup(actStudentManage))
}
