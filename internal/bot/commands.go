package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const adminHelp = `🤖 <b>Chemistry Bot - Справка администратора</b>

<b>Основные команды:</b>
/start - Главное меню
/help - Эта справка

<b>Функции в меню:</b>
👥 <b>Ученики</b>
  ➕ Добавить ученика
  📋 Информация об ученике
  ✏️ Редактировать ученика (добавить/удалить лекции, изменить расписание)
  🗑️ Удалить ученика

📚 <b>Лекции</b>
  ➕ Добавить лекцию (загрузить файл)
  📖 Просмотр всех лекций
  🗑️ Удалить лекцию`

const studentHelp = `🤖 <b>Chemistry Bot - Справка ученика</b>

<b>Основные команды:</b>
/start - Главное меню
/help - Эта справка

<b>Функции в меню:</b>
📅 <b>Моё расписание</b> - Просмотр времени занятий

📚 <b>Доступные лекции</b> - Скачивание и управление материалами

⚙️ <b>Мои настройки</b>
  📝 Редактировать расписание
  📚 Управлять лекциями (удалить из списка)`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.commandStart(ctx, msg)
	case "menu":
		b.commandMenu(ctx, msg)
	case "help":
		b.commandHelp(msg)
	case "schedule":
		b.commandSchedule(ctx, msg)
	case "lectures":
		b.commandLectures(ctx, msg)
	case "settings":
		b.commandSettings(ctx, msg)
	case "students":
		b.commandStudents(ctx, msg)
	case "add_student":
		b.commandAddStudent(msg)
	case "add_lecture":
		b.commandAddLecture(msg)
	}
}

func (b *Bot) commandStart(ctx context.Context, msg *tgbotapi.Message) {
	b.request(tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Главное меню"},
		tgbotapi.BotCommand{Command: "help", Description: "Справка"},
	))
	b.commandMenu(ctx, msg)
}

func (b *Bot) commandMenu(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if b.admins[userID] {
		b.replyMarkup(chatID, "🔧 Меню администратора:", adminMenuMarkup())
		return
	}

	if _, err := b.students.Get(ctx, userID); err != nil {
		b.reply(chatID, fmt.Sprintf(
			"👋 Привет! Тебе нужно получить доступ у администратора.\nТвой username: @%s\nТвой ID: %d",
			msg.From.UserName, userID))
		return
	}

	b.replyMarkup(chatID, "🔧 Меню ученика:", studentMenuMarkup())
}

func (b *Bot) commandHelp(msg *tgbotapi.Message) {
	text := studentHelp
	if b.admins[msg.From.ID] {
		text = adminHelp
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	b.send(reply)
}

func (b *Bot) commandSchedule(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	if b.admins[userID] {
		return
	}

	student, err := b.students.Get(ctx, userID)
	if err != nil {
		b.reply(msg.Chat.ID, "❌ Ты не зарегистрирован в системе")
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf("📅 <b>Твоё расписание:</b>\n\n%s", student.Schedule))
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = backMarkup(actBackMenu)
	b.send(reply)
}

func (b *Bot) commandLectures(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if b.admins[msg.From.ID] {
		all, err := b.lectures.All(ctx)
		if err != nil || len(all) == 0 {
			b.replyMarkup(chatID, "📚 Нет лекций в системе", backMarkup(actBackAdmin))
			return
		}

		text := "📚 <b>Все лекции в системе:</b>\n\n"
		for _, id := range sortedKeys(all) {
			text += fmt.Sprintf("📄 %s\n", all[id])
		}
		reply := tgbotapi.NewMessage(chatID, text)
		reply.ParseMode = tgbotapi.ModeHTML
		reply.ReplyMarkup = backMarkup(actBackAdmin)
		b.send(reply)
		return
	}

	student, err := b.students.Get(ctx, msg.From.ID)
	if err != nil {
		b.reply(chatID, "❌ Ты не зарегистрирован в системе")
		return
	}
	if len(student.Lectures) == 0 {
		b.replyMarkup(chatID, "📚 У тебя нет доступных лекций", backMarkup(actBackMenu))
		return
	}

	text := fmt.Sprintf("📚 <b>Твои лекции (%d):</b>\n\n", len(student.Lectures))
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, id := range student.Lectures {
		lecture, err := b.lectures.Get(ctx, id)
		if err != nil {
			text += "❓ Unknown lecture\n"
			continue
		}
		text += fmt.Sprintf("📄 %s\n", lecture.Name)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬇️ "+lecture.Name, encodeToken(actDownloadLecture, id)),
			tgbotapi.NewInlineKeyboardButtonData("❌", encodeToken(actDropLecture, id)),
		))
	}
	rows = append(rows, backRow(actBackMenu))

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(reply)
}

func (b *Bot) commandSettings(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	if b.admins[userID] {
		return
	}

	student, err := b.students.Get(ctx, userID)
	if err != nil {
		b.reply(msg.Chat.ID, "❌ Ты не зарегистрирован в системе")
		return
	}

	text := fmt.Sprintf(
		"⚙️ <b>Мои настройки</b>\n\n👤 Username: @%s\n📅 Расписание: %s\n📚 Лекции: %d",
		student.Username, student.Schedule, len(student.Lectures))

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Редактировать расписание", actStudentEditSchedule),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📚 Управлять лекциями", actStudentManage),
		),
		backRow(actBackMenu),
	)
	b.send(reply)
}

func (b *Bot) commandStudents(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admins[msg.From.ID] {
		return
	}

	students, err := b.students.List(ctx)
	if err != nil || len(students) == 0 {
		b.reply(msg.Chat.ID, "📋 Нет учеников в системе")
		return
	}

	text := fmt.Sprintf("👥 <b>Список учеников (%d):</b>\n\n", len(students))
	for i := range students {
		text += fmt.Sprintf("👤 @%s (ID: %d)\n   📅 %s\n   📚 Лекций: %d\n\n",
			students[i].Username, students[i].UserID, students[i].Schedule, len(students[i].Lectures))
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = backMarkup(actBackAdmin)
	b.send(reply)
}

func (b *Bot) commandAddStudent(msg *tgbotapi.Message) {
	if !b.admins[msg.From.ID] {
		return
	}

	b.sessions.Get(msg.From.ID).Action = pendingAddStudent

	reply := tgbotapi.NewMessage(msg.Chat.ID,
		"📝 Отправь данные ученика в формате:\n\n"+
			"<code>user_id username расписание</code>\n\n"+
			"Пример:\n<code>123456789 vasya пн,ср,пт 15:00</code>")
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = backMarkup(actAdminStudents)
	b.send(reply)
}

func (b *Bot) commandAddLecture(msg *tgbotapi.Message) {
	if !b.admins[msg.From.ID] {
		return
	}

	sess := b.sessions.Get(msg.From.ID)
	sess.Action = pendingLectureName
	sess.LectureCategory = ""
	b.reply(msg.Chat.ID, "📝 Введи название лекции:")
}
