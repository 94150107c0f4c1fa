package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/chemtutor/chembot/internal/models"
	appErrors "github.com/chemtutor/chembot/pkg/errors"
)

// List screens reuse one renderer; the mode picks the per-student action.
type studentListMode int

const (
	listInfo studentListMode = iota
	listEdit
	listBecome
	listDelete
)

func (b *Bot) handleAdminAction(ctx context.Context, cb *callbackCtx, action string, args []string) {
	switch action {
	case actAdminStudents:
		b.showAdminStudentsMenu(cb)
	case actAdminAddStudent:
		b.promptAddStudent(cb)
	case actAdminStudentInfo:
		b.showStudentsList(ctx, cb, listInfo)
	case actAdminEditStudent:
		b.showStudentsList(ctx, cb, listEdit)
	case actAdminBecomeStudent:
		b.showStudentsList(ctx, cb, listBecome)
	case actAdminDeleteStudent:
		b.showStudentsList(ctx, cb, listDelete)
	case actStudentInfo:
		b.withStudentArg(ctx, cb, args, b.showStudentInfo)
	case actEditStudent:
		b.withStudentArg(ctx, cb, args, b.showEditStudentMenu)
	case actBecomeStudent:
		b.withStudentArg(ctx, cb, args, b.becomeStudent)
	case actDeleteStudent:
		b.withStudentArg(ctx, cb, args, b.deleteStudent)
	case actEditAddLecture:
		b.withStudentArg(ctx, cb, args, b.showGrantFolders)
	case actEditAddLectureCat:
		if len(args) == 2 {
			if studentID, err := parseStudentID(args[0]); err == nil {
				b.showGrantLectures(ctx, cb, studentID, args[1])
			}
		}
	case actGrantLecture:
		if len(args) == 2 {
			if studentID, err := parseStudentID(args[0]); err == nil {
				b.grantLecture(ctx, cb, studentID, args[1])
			}
		}
	case actEditRemoveLecture:
		b.withStudentArg(ctx, cb, args, b.showRevokeFolders)
	case actEditRemoveLectureCat:
		if len(args) == 2 {
			if studentID, err := parseStudentID(args[0]); err == nil {
				b.showRevokeLectures(ctx, cb, studentID, args[1])
			}
		}
	case actRevokeLecture:
		if len(args) == 2 {
			if studentID, err := parseStudentID(args[0]); err == nil {
				b.revokeLecture(ctx, cb, studentID, args[1])
			}
		}
	case actEditSchedule:
		b.withStudentArg(ctx, cb, args, b.promptStudentSchedule)
	case actEditHomework:
		b.withStudentArg(ctx, cb, args, b.promptStudentHomework)
	default:
		b.handleAdminLectureAction(ctx, cb, action, args)
	}
}

func parseStudentID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func (b *Bot) withStudentArg(ctx context.Context, cb *callbackCtx, args []string, fn func(context.Context, *callbackCtx, int64)) {
	if len(args) != 1 {
		return
	}
	studentID, err := parseStudentID(args[0])
	if err != nil {
		b.alert(cb.query.ID, "❌ Ошибка обработки")
		return
	}
	fn(ctx, cb, studentID)
}

func (b *Bot) showAdminStudentsMenu(cb *callbackCtx) {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить ученика", actAdminAddStudent),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Информация об ученике", actAdminStudentInfo),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Редактировать ученика", actAdminEditStudent),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👁️ Стать учеником", actAdminBecomeStudent),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑️ Удалить ученика", actAdminDeleteStudent),
		),
		backRow(actBackAdmin),
	)
	b.edit(cb, "👥 Управление учениками:", markup)
}

func (b *Bot) promptAddStudent(cb *callbackCtx) {
	cb.sess.Action = pendingAddStudent
	b.edit(cb,
		"📝 Отправьте информацию об ученике в формате:\n\n"+
			"user_id username расписание\n\n"+
			"Пример: 123456789 vasya пн,ср,пт 15:00\n\n"+
			"⚠️ user_id - это числовой ID ученика в Telegram\n"+
			"Его можно получить через @userinfobot",
		backMarkup(actAdminStudents))
}

func (b *Bot) showStudentsList(ctx context.Context, cb *callbackCtx, mode studentListMode) {
	students, err := b.students.List(ctx)
	if err != nil {
		b.logger.Error("failed to list students", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке учеников", backMarkup(actAdminStudents))
		return
	}
	if len(students) == 0 {
		b.edit(cb, "📭 Нет учеников в базе данных", backMarkup(actAdminStudents))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := range students {
		id := strconv.FormatInt(students[i].UserID, 10)
		var button tgbotapi.InlineKeyboardButton
		switch mode {
		case listInfo:
			button = tgbotapi.NewInlineKeyboardButtonData("👤 "+students[i].Username, encodeToken(actStudentInfo, id))
		case listEdit:
			button = tgbotapi.NewInlineKeyboardButtonData("✏️ "+students[i].Username, encodeToken(actEditStudent, id))
		case listBecome:
			button = tgbotapi.NewInlineKeyboardButtonData("👁️ "+students[i].Username, encodeToken(actBecomeStudent, id))
		case listDelete:
			button = tgbotapi.NewInlineKeyboardButtonData("🗑️ "+students[i].Username, encodeToken(actDeleteStudent, id))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button))
	}
	rows = append(rows, backRow(actAdminStudents))

	text := "📋 Выберите ученика:"
	if mode == listBecome {
		text = "📋 Выберите ученика для просмотра:"
	}
	b.edit(cb, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) showStudentInfo(ctx context.Context, cb *callbackCtx, studentID int64) {
	student, err := b.students.Get(ctx, studentID)
	if err != nil {
		b.edit(cb, "❌ Ученик не найден", backMarkup(actAdminStudents))
		return
	}

	grouped, err := b.folders(ctx, student)
	if err != nil {
		b.logger.Error("failed to group lectures", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке лекций", backMarkup(actAdminStudents))
		return
	}

	lecturesList := "  Нет лекций"
	if len(grouped) > 0 {
		names := make([]string, 0, len(grouped))
		for name := range grouped {
			names = append(names, name)
		}
		sort.Strings(names)

		lecturesList = ""
		for _, name := range names {
			lecturesList += fmt.Sprintf("📁 <b>%s</b>\n", name)
			titles := make([]string, 0, len(grouped[name]))
			for _, lecture := range grouped[name] {
				titles = append(titles, lecture.Name)
			}
			sort.Strings(titles)
			for _, title := range titles {
				lecturesList += fmt.Sprintf("  • %s\n", title)
			}
		}
	}

	homework := ""
	if student.Homework != "" {
		homework = fmt.Sprintf("\n📓 <b>Домашнее задание:</b>\n%s", student.Homework)
	}

	text := fmt.Sprintf(
		"👤 <b>%s</b>\n📅 Расписание: %s\n📚 Доступные лекции:\n%s%s",
		student.Username, student.Schedule, lecturesList, homework,
	)
	b.editHTML(cb, text, backMarkup(actAdminStudents))
}

func (b *Bot) showEditStudentMenu(ctx context.Context, cb *callbackCtx, studentID int64) {
	student, err := b.students.Get(ctx, studentID)
	if err != nil {
		b.edit(cb, "❌ Ученик не найден", backMarkup(actAdminStudents))
		return
	}
	b.edit(cb, fmt.Sprintf("✏️ Редактирование %s:", student.Username), editStudentMarkup(studentID))
}

func editStudentMarkup(studentID int64) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(studentID, 10)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить лекцию", encodeToken(actEditAddLecture, id)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑️ Удалить лекцию", encodeToken(actEditRemoveLecture, id)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Редактировать расписание", encodeToken(actEditSchedule, id)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📓 Добавить ДЗ", encodeToken(actEditHomework, id)),
		),
		backRow(actAdminStudents),
	)
}

func (b *Bot) becomeStudent(ctx context.Context, cb *callbackCtx, studentID int64) {
	student, err := b.students.Get(ctx, studentID)
	if err != nil {
		b.edit(cb, "❌ Ученик не найден", backMarkup(actAdminStudents))
		return
	}
	cb.sess.ViewStudentID = studentID
	b.showImpersonatedMenu(cb, student.Username)
}

func (b *Bot) deleteStudent(ctx context.Context, cb *callbackCtx, studentID int64) {
	student, err := b.students.Get(ctx, studentID)
	if err != nil {
		b.edit(cb, "❌ Ученик не найден", backMarkup(actAdminStudents))
		return
	}

	if err := b.students.Delete(ctx, studentID); err != nil {
		b.logger.Error("failed to delete student", zap.Int64("user_id", studentID), zap.Error(err))
		b.edit(cb, "❌ Ошибка при удалении ученика", backMarkup(actAdminStudents))
		return
	}

	b.edit(cb, fmt.Sprintf("✅ Ученик '%s' удален из базы данных!", student.Username), backMarkup(actAdminStudents))
}

// grantableByFolder lists, per category, the lectures a student does not
// hold yet. Empty folders are omitted.
func (b *Bot) grantableByFolder(ctx context.Context, student *models.Student) (map[string]map[string]string, error) {
	byCategory, err := b.lectures.AllByCategory(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]map[string]string)
	for category, lectures := range byCategory {
		available := make(map[string]string)
		for id, name := range lectures {
			if !student.HasLecture(id) {
				available[id] = name
			}
		}
		if len(available) > 0 {
			result[category] = available
		}
	}
	return result, nil
}

func (b *Bot) showGrantFolders(ctx context.Context, cb *callbackCtx, studentID int64) {
	student, err := b.students.Get(ctx, studentID)
	if err != nil {
		b.edit(cb, "❌ Ученик не найден", backMarkup(actAdminStudents))
		return
	}

	available, err := b.grantableByFolder(ctx, student)
	if err != nil {
		b.logger.Error("failed to list lectures", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке лекций", backMarkup(actAdminStudents))
		return
	}

	id := strconv.FormatInt(studentID, 10)
	text := fmt.Sprintf("📚 Добавить лекцию ученику %s:", student.Username)

	if len(available) == 0 {
		markup := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📭 Все лекции добавлены", actNoop),
			),
			backRow(encodeToken(actEditStudent, id)),
		)
		b.edit(cb, text, markup)
		return
	}

	names := make([]string, 0, len(available))
	for name := range available {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, name := range names {
		label := fmt.Sprintf("🔧 %s (%d)", name, len(available[name]))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, encodeToken(actEditAddLectureCat, id, models.CategoryToken(name))),
		))
	}
	rows = append(rows, backRow(encodeToken(actEditStudent, id)))

	b.edit(cb, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) showGrantLectures(ctx context.Context, cb *callbackCtx, studentID int64, token string) {
	id := strconv.FormatInt(studentID, 10)

	category, err := b.categories.Resolve(ctx, token)
	if err != nil {
		b.edit(cb, "❌ Папка не найдена", backMarkup(encodeToken(actEditAddLecture, id)))
		return
	}

	student, err := b.students.Get(ctx, studentID)
	if err != nil {
		b.edit(cb, "❌ Ученик не найден", backMarkup(actAdminStudents))
		return
	}

	inCategory, err := b.lectures.ByCategory(ctx, category)
	if err != nil {
		b.logger.Error("failed to list category", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке лекций", backMarkup(encodeToken(actEditAddLecture, id)))
		return
	}

	available := make(map[string]string)
	for lectureID, name := range inCategory {
		if !student.HasLecture(lectureID) {
			available[lectureID] = name
		}
	}

	if len(available) == 0 {
		b.edit(cb, fmt.Sprintf("📭 Все лекции в папке '%s' уже добавлены", category),
			backMarkup(encodeToken(actEditAddLecture, id)))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, lectureID := range sortedKeys(available) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ "+available[lectureID], encodeToken(actGrantLecture, id, lectureID)),
		))
	}
	rows = append(rows, backRow(encodeToken(actEditAddLecture, id)))

	b.edit(cb, fmt.Sprintf("📚 Лекции в папке '%s':", category), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) grantLecture(ctx context.Context, cb *callbackCtx, studentID int64, lectureID string) {
	student, err := b.students.Get(ctx, studentID)
	if err != nil {
		b.alert(cb.query.ID, "❌ Ученик не найден")
		return
	}
	lecture, err := b.lectures.Get(ctx, lectureID)
	if err != nil {
		b.alert(cb.query.ID, "❌ Лекция не найдена")
		return
	}
	if student.HasLecture(lectureID) {
		b.alert(cb.query.ID, fmt.Sprintf("⚠️ Лекция '%s' уже у ученика %s", lecture.Name, student.Username))
		return
	}

	if err := b.students.Grant(ctx, studentID, lectureID); err != nil {
		b.logger.Error("failed to grant lecture",
			zap.Int64("user_id", studentID), zap.String("lecture_id", lectureID), zap.Error(err))
		b.alert(cb.query.ID, "❌ Ошибка при добавлении лекции")
		return
	}

	b.alert(cb.query.ID, fmt.Sprintf("✅ Лекция '%s' добавлена ученику %s", lecture.Name, student.Username))
	// redraw so another lecture can be picked right away
	b.showGrantFolders(ctx, cb, studentID)
}

func (b *Bot) showRevokeFolders(ctx context.Context, cb *callbackCtx, studentID int64) {
	student, err := b.students.Get(ctx, studentID)
	if err != nil {
		b.edit(cb, "❌ Ученик не найден", backMarkup(actAdminStudents))
		return
	}

	id := strconv.FormatInt(studentID, 10)
	if len(student.Lectures) == 0 {
		b.edit(cb, "📭 У ученика нет лекций", backMarkup(encodeToken(actEditStudent, id)))
		return
	}

	grouped, err := b.folders(ctx, student)
	if err != nil {
		b.logger.Error("failed to group lectures", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке лекций", backMarkup(encodeToken(actEditStudent, id)))
		return
	}

	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, name := range names {
		label := fmt.Sprintf("🔧 %s (%d)", name, len(grouped[name]))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, encodeToken(actEditRemoveLectureCat, id, models.CategoryToken(name))),
		))
	}
	rows = append(rows, backRow(encodeToken(actEditStudent, id)))

	b.edit(cb, fmt.Sprintf("🗑️ Удалить лекцию ученика %s:", student.Username), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) showRevokeLectures(ctx context.Context, cb *callbackCtx, studentID int64, token string) {
	id := strconv.FormatInt(studentID, 10)

	category, err := b.categories.Resolve(ctx, token)
	if err != nil {
		b.edit(cb, "❌ Папка не найдена", backMarkup(encodeToken(actEditRemoveLecture, id)))
		return
	}

	student, err := b.students.Get(ctx, studentID)
	if err != nil {
		b.edit(cb, "❌ Ученик не найден", backMarkup(actAdminStudents))
		return
	}

	grouped, err := b.folders(ctx, student)
	if err != nil {
		b.logger.Error("failed to group lectures", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке лекций", backMarkup(encodeToken(actEditRemoveLecture, id)))
		return
	}

	lectures := grouped[category]
	if len(lectures) == 0 {
		b.edit(cb, fmt.Sprintf("📭 В папке '%s' нет лекций ученика", category),
			backMarkup(encodeToken(actEditRemoveLecture, id)))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, lecture := range lectures {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑️ "+lecture.Name, encodeToken(actRevokeLecture, id, lecture.ID)),
		))
	}
	rows = append(rows, backRow(encodeToken(actEditRemoveLecture, id)))

	b.edit(cb, fmt.Sprintf("📚 Лекции в папке '%s':", category), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) revokeLecture(ctx context.Context, cb *callbackCtx, studentID int64, lectureID string) {
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
		b.logger.Error("failed to revoke lecture",
			zap.Int64("user_id", studentID), zap.String("lecture_id", lectureID), zap.Error(err))
		b.alert(cb.query.ID, "❌ Ошибка при удалении лекции")
		return
	}

	b.alert(cb.query.ID, fmt.Sprintf("✅ Лекция '%s' удалена у ученика %s", lectureName, student.Username))
	b.showRevokeFolders(ctx, cb, studentID)
}

func (b *Bot) promptStudentSchedule(ctx context.Context, cb *callbackCtx, studentID int64) {
	student, err := b.students.Get(ctx, studentID)
	if err != nil {
		b.edit(cb, "❌ Ученик не найден", backMarkup(actAdminStudents))
		return
	}

	cb.sess.Action = pendingStudentSchedule
	cb.sess.EditStudentID = studentID
	b.edit(cb,
		fmt.Sprintf("📝 Редактирование расписания ученика %s\n\nТекущее расписание: %s\n\nОтправьте новое расписание:",
			student.Username, student.Schedule),
		backMarkup(encodeToken(actEditStudent, strconv.FormatInt(studentID, 10))))
}

func (b *Bot) promptStudentHomework(ctx context.Context, cb *callbackCtx, studentID int64) {
	student, err := b.students.Get(ctx, studentID)
	if err != nil {
		b.edit(cb, "❌ Ученик не найден", backMarkup(actAdminStudents))
		return
	}

	homework := student.Homework
	if homework == "" {
		homework = "Не установлено"
	}

	cb.sess.Action = pendingStudentHomework
	cb.sess.EditStudentID = studentID
	b.edit(cb,
		fmt.Sprintf("📝 Добавление ДЗ для ученика %s\n\nТекущее ДЗ: %s\n\nОтправьте текст с ДЗ:",
			student.Username, homework),
		backMarkup(encodeToken(actEditStudent, strconv.FormatInt(studentID, 10))))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isConflict(err error) bool {
	return errors.Is(err, appErrors.ErrAlreadyExists)
}
