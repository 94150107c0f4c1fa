package bot

import (
	"context"
	"fmt"
	"sort"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/chemtutor/chembot/internal/models"
)

func (b *Bot) handleAdminLectureAction(ctx context.Context, cb *callbackCtx, action string, args []string) {
	switch action {
	case actAdminLectures:
		b.showAdminLecturesMenu(cb)
	case actAdminAddLecture:
		b.showAddLectureChoice(cb)
	case actAdminAddLectureNew:
		b.showCategoriesForNewLecture(ctx, cb)
	case actSelectCatNew:
		if len(args) == 1 {
			b.promptLectureName(ctx, cb, args[0])
		}
	case actAddCategoryForLecture:
		b.promptCategoryName(cb, true)
	case actAdminAddLectureExisting:
		b.showCategoryPicker(ctx, cb, actSelectCatExisting, actAdminAddLecture)
	case actSelectCatExisting:
		if len(args) == 1 {
			b.showExistingLectures(ctx, cb, args[0])
		}
	case actSelectExisting:
		if len(args) == 1 {
			b.showMoveTargets(ctx, cb, args[0])
		}
	case actMoveLecture:
		if len(args) == 2 {
			b.moveLecture(ctx, cb, args[0], args[1])
		}
	case actAdminViewAll:
		b.showAllLectures(ctx, cb)
	case actAdminDeleteLecture:
		b.showCategoryPicker(ctx, cb, actSelectCatDelete, actAdminLectures)
	case actSelectCatDelete:
		if len(args) == 1 {
			b.showDeletableLectures(ctx, cb, args[0])
		}
	case actDeleteLecture:
		if len(args) == 1 {
			b.deleteLecture(ctx, cb, args[0])
		}
	case actAdminCategories:
		b.showManageCategories(ctx, cb)
	case actViewCategory:
		if len(args) == 1 {
			b.showCategoryDetails(ctx, cb, args[0])
		}
	case actDeleteCategory:
		if len(args) == 1 {
			b.deleteCategory(ctx, cb, args[0])
		}
	case actAddCategory:
		b.promptCategoryName(cb, false)
	}
}

func (b *Bot) showAdminLecturesMenu(cb *callbackCtx) {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить лекцию", actAdminAddLecture),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📖 Все лекции", actAdminViewAll),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Редактировать папки", actAdminCategories),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑️ Удалить лекцию", actAdminDeleteLecture),
		),
		backRow(actBackAdmin),
	)
	b.edit(cb, "📚 Управление лекциями:", markup)
}

func (b *Bot) showAddLectureChoice(cb *callbackCtx) {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📄 Новая лекция", actAdminAddLectureNew),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📚 Существующая лекция", actAdminAddLectureExisting),
		),
		backRow(actAdminLectures),
	)
	b.edit(cb, "Что вы хотите сделать?", markup)
}

// categoryRows renders one folder button per known category.
func (b *Bot) categoryRows(ctx context.Context, action string) ([][]tgbotapi.InlineKeyboardButton, error) {
	categories, err := b.categories.All(ctx)
	if err != nil {
		return nil, err
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, name := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📁 "+name, encodeToken(action, models.CategoryToken(name))),
		))
	}
	return rows, nil
}

func (b *Bot) showCategoryPicker(ctx context.Context, cb *callbackCtx, action, backData string) {
	rows, err := b.categoryRows(ctx, action)
	if err != nil {
		b.logger.Error("failed to list categories", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке папок", backMarkup(backData))
		return
	}
	rows = append(rows, backRow(backData))
	b.edit(cb, "Выберите папку:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) showCategoriesForNewLecture(ctx context.Context, cb *callbackCtx) {
	rows, err := b.categoryRows(ctx, actSelectCatNew)
	if err != nil {
		b.logger.Error("failed to list categories", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке папок", backMarkup(actAdminAddLecture))
		return
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Новая папка", actAddCategoryForLecture),
	))
	rows = append(rows, backRow(actAdminAddLecture))
	b.edit(cb, "Выберите папку для новой лекции:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) promptLectureName(ctx context.Context, cb *callbackCtx, token string) {
	category, err := b.categories.Resolve(ctx, token)
	if err != nil {
		b.edit(cb, "❌ Папка не найдена", backMarkup(actAdminAddLectureNew))
		return
	}

	cb.sess.Action = pendingLectureName
	cb.sess.LectureCategory = category
	b.edit(cb,
		fmt.Sprintf("📚 Название лекции для папки '%s':\n\nОтправьте название лекции", category),
		backMarkup(actAdminAddLectureNew))
}

func (b *Bot) promptCategoryName(cb *callbackCtx, forLecture bool) {
	backData := actAdminCategories
	cb.sess.Action = pendingCategory
	if forLecture {
		backData = actAdminAddLectureNew
		cb.sess.Action = pendingCategoryForNew
	}
	b.edit(cb, "Введите название новой папки:", backMarkup(backData))
}

func (b *Bot) showExistingLectures(ctx context.Context, cb *callbackCtx, token string) {
	category, err := b.categories.Resolve(ctx, token)
	if err != nil {
		b.edit(cb, "❌ Папка не найдена", backMarkup(actAdminAddLectureExisting))
		return
	}

	lectures, err := b.lectures.ByCategory(ctx, category)
	if err != nil {
		b.logger.Error("failed to list category", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке лекций", backMarkup(actAdminAddLectureExisting))
		return
	}
	if len(lectures) == 0 {
		b.edit(cb, fmt.Sprintf("📭 В папке '%s' нет лекций", category), backMarkup(actAdminAddLectureExisting))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, id := range sortedKeys(lectures) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📚 "+lectures[id], encodeToken(actSelectExisting, id)),
		))
	}
	rows = append(rows, backRow(actAdminAddLectureExisting))

	b.edit(cb, fmt.Sprintf("📚 Лекции в папке '%s':", category), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) showMoveTargets(ctx context.Context, cb *callbackCtx, lectureID string) {
	lecture, err := b.lectures.Get(ctx, lectureID)
	if err != nil {
		b.edit(cb, "❌ Лекция не найдена", backMarkup(actAdminAddLectureExisting))
		return
	}

	categories, err := b.categories.All(ctx)
	if err != nil {
		b.logger.Error("failed to list categories", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке папок", backMarkup(actAdminAddLectureExisting))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, name := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📁 "+name, encodeToken(actMoveLecture, lectureID, models.CategoryToken(name))),
		))
	}
	rows = append(rows, backRow(actAdminAddLectureExisting))

	b.edit(cb, fmt.Sprintf("Выберите папку для лекции '%s':", lecture.Name), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) moveLecture(ctx context.Context, cb *callbackCtx, lectureID, token string) {
	lecture, err := b.lectures.Get(ctx, lectureID)
	if err != nil {
		b.edit(cb, "❌ Лекция не найдена", backMarkup(actAdminLectures))
		return
	}

	category, err := b.categories.Resolve(ctx, token)
	if err != nil {
		b.edit(cb, "❌ Папка не найдена", backMarkup(actAdminLectures))
		return
	}

	holders, err := b.lectures.HoldersCount(ctx, lectureID)
	if err != nil {
		holders = 0
	}

	if err := b.lectures.Move(ctx, lectureID, category); err != nil {
		b.logger.Error("failed to move lecture",
			zap.String("lecture_id", lectureID), zap.String("category", category), zap.Error(err))
		b.edit(cb, "❌ Ошибка при перемещении лекции", backMarkup(actAdminLectures))
		return
	}

	b.edit(cb,
		fmt.Sprintf("✅ Лекция '%s' перемещена в папку '%s'!\n\n👥 Лекция назначена %d ученик(ам)",
			lecture.Name, category, holders),
		backMarkup(actAdminLectures))
}

func (b *Bot) showAllLectures(ctx context.Context, cb *callbackCtx) {
	byCategory, err := b.lectures.AllByCategory(ctx)
	if err != nil {
		b.logger.Error("failed to list lectures", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке лекций", backMarkup(actAdminLectures))
		return
	}

	total := 0
	for _, lectures := range byCategory {
		total += len(lectures)
	}
	if total == 0 {
		b.edit(cb, "📭 Нет лекций в базе данных", backMarkup(actAdminLectures))
		return
	}

	categories := make([]string, 0, len(byCategory))
	for name := range byCategory {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	text := "📚 <b>Все загруженные лекции:</b>\n\n"
	count := 0
	for _, category := range categories {
		lectures := byCategory[category]
		if len(lectures) == 0 {
			continue
		}
		text += fmt.Sprintf("<b>📁 %s</b>\n", category)

		for _, id := range sortedKeys(lectures) {
			lecture, err := b.lectures.Get(ctx, id)
			if err != nil {
				continue
			}
			holders, err := b.lectures.HoldersCount(ctx, id)
			if err != nil {
				holders = 0
			}
			count++
			text += fmt.Sprintf("  <b>%d. %s</b>\n", count, lecture.Name)
			text += fmt.Sprintf("     📄 %s\n", lecture.File.Filename)
			text += fmt.Sprintf("     👥 %d ученик(ов)\n\n", holders)
		}
	}

	b.editHTML(cb, text, backMarkup(actAdminLectures))
}

func (b *Bot) showDeletableLectures(ctx context.Context, cb *callbackCtx, token string) {
	category, err := b.categories.Resolve(ctx, token)
	if err != nil {
		b.edit(cb, "❌ Папка не найдена", backMarkup(actAdminDeleteLecture))
		return
	}

	lectures, err := b.lectures.ByCategory(ctx, category)
	if err != nil {
		b.logger.Error("failed to list category", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке лекций", backMarkup(actAdminDeleteLecture))
		return
	}
	if len(lectures) == 0 {
		b.edit(cb, fmt.Sprintf("📭 В папке '%s' нет лекций", category), backMarkup(actAdminDeleteLecture))
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, id := range sortedKeys(lectures) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑️ "+lectures[id], encodeToken(actDeleteLecture, id)),
		))
	}
	rows = append(rows, backRow(actAdminDeleteLecture))

	b.edit(cb, fmt.Sprintf("📚 Лекции в папке '%s':", category), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) deleteLecture(ctx context.Context, cb *callbackCtx, lectureID string) {
	lecture, err := b.lectures.Get(ctx, lectureID)
	if err != nil {
		b.edit(cb, "❌ Лекция не найдена", backMarkup(actAdminDeleteLecture))
		return
	}

	revoked, err := b.lectures.Delete(ctx, lectureID)
	if err != nil {
		b.logger.Error("failed to delete lecture", zap.String("lecture_id", lectureID), zap.Error(err))
		b.edit(cb, "❌ Ошибка при удалении лекции", backMarkup(actAdminDeleteLecture))
		return
	}

	if lecture.File.Filepath != "" {
		if err := b.files.Delete(lecture.File.Filepath); err != nil {
			b.logger.Warn("failed to remove lecture file",
				zap.String("lecture_id", lectureID), zap.Error(err))
		}
	}

	text := fmt.Sprintf("✅ Лекция '%s' удалена!", lecture.Name)
	if revoked > 0 {
		text += fmt.Sprintf("\n\nℹ️ Удалена у %d ученика(ов)", revoked)
	}
	b.edit(cb, text, backMarkup(actAdminDeleteLecture))
}

func (b *Bot) showManageCategories(ctx context.Context, cb *callbackCtx) {
	rows, err := b.categoryRows(ctx, actViewCategory)
	if err != nil {
		b.logger.Error("failed to list categories", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке папок", backMarkup(actAdminLectures))
		return
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Добавить папку", actAddCategory),
	))
	rows = append(rows, backRow(actAdminLectures))

	b.edit(cb, "📁 Редактировать папки:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) showCategoryDetails(ctx context.Context, cb *callbackCtx, token string) {
	category, err := b.categories.Resolve(ctx, token)
	if err != nil {
		b.edit(cb, "❌ Папка не найдена", backMarkup(actAdminCategories))
		return
	}

	lectures, err := b.lectures.ByCategory(ctx, category)
	if err != nil {
		b.logger.Error("failed to list category", zap.Error(err))
		b.edit(cb, "❌ Ошибка при загрузке лекций", backMarkup(actAdminCategories))
		return
	}

	text := fmt.Sprintf("📁 <b>%s</b>\n\n📚 Лекций: %d\n\n", category, len(lectures))
	if len(lectures) > 0 {
		text += "<b>Лекции:</b>\n"
		for _, id := range sortedKeys(lectures) {
			text += fmt.Sprintf("  • %s\n", lectures[id])
		}
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if category != models.DefaultCategory {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑️ Удалить папку", encodeToken(actDeleteCategory, models.CategoryToken(category))),
		))
	}
	rows = append(rows, backRow(actAdminCategories))

	b.editHTML(cb, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) deleteCategory(ctx context.Context, cb *callbackCtx, token string) {
	category, err := b.categories.Resolve(ctx, token)
	if err != nil {
		b.edit(cb, "❌ Ошибка при удалении папки", backMarkup(actAdminCategories))
		return
	}

	if err := b.categories.Delete(ctx, category); err != nil {
		b.logger.Warn("failed to delete category", zap.String("category", category), zap.Error(err))
		b.edit(cb, "❌ Ошибка при удалении папки", backMarkup(actAdminCategories))
		return
	}

	b.edit(cb,
		fmt.Sprintf("✅ Папка '%s' удалена!\n\nℹ️ Лекции перемещены в '%s'", category, models.DefaultCategory),
		backMarkup(actAdminCategories))
}
