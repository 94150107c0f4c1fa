package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/chemtutor/chembot/internal/repository"
	"github.com/chemtutor/chembot/internal/service"
	"github.com/chemtutor/chembot/pkg/config"
	"github.com/chemtutor/chembot/pkg/database"
	appErrors "github.com/chemtutor/chembot/pkg/errors"
)

// cli bundles the services and the stdin reader the menu loop uses.
type cli struct {
	students   *service.StudentService
	lectures   *service.LectureService
	categories *service.CategoryService
	stats      *service.StatsService
	in         *bufio.Reader
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// keep structured logs out of the interactive menu
	quiet := zap.NewNop()

	client, err := database.NewRedis(cfg.Redis)
	if err != nil {
		fmt.Println("❌ Error: Cannot connect to Redis!")
		fmt.Println("Please make sure Redis is running.")
		os.Exit(1)
	}
	defer client.Close() //nolint:errcheck
	fmt.Println("✅ Connected to Redis")

	ctx := context.Background()

	studentRepo := repository.NewStudentRepository(client, quiet)
	categoryRepo := repository.NewCategoryRepository(client, quiet)
	lectureRepo := repository.NewLectureRepository(client, quiet)
	maintenanceRepo := repository.NewMaintenanceRepository(client, quiet)

	if err := categoryRepo.InitDefault(ctx); err != nil {
		fmt.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}

	c := &cli{
		students:   service.NewStudentService(studentRepo, lectureRepo, nil, quiet),
		lectures:   service.NewLectureService(lectureRepo, categoryRepo, studentRepo, nil, quiet),
		categories: service.NewCategoryService(categoryRepo, quiet),
		stats:      service.NewStatsService(studentRepo, lectureRepo, maintenanceRepo, quiet),
		in:         bufio.NewReader(os.Stdin),
	}
	c.run(ctx)
}

func (c *cli) run(ctx context.Context) {
	for {
		printMenu()
		choice := c.prompt("Enter your choice: ")

		switch choice {
		case "0":
			fmt.Println("👋 Goodbye!")
			return
		case "1":
			c.addStudent(ctx)
		case "2":
			c.viewStudent(ctx)
		case "3":
			c.listStudents(ctx)
		case "4":
			c.updateSchedule(ctx)
		case "5":
			c.grantLecture(ctx)
		case "6":
			c.revokeLecture(ctx)
		case "7":
			c.addLecture(ctx)
		case "8":
			c.viewLecture(ctx)
		case "9":
			c.listLectures(ctx)
		case "10":
			c.deleteLecture(ctx)
		case "11":
			c.deleteStudent(ctx)
		case "12":
			c.showStats(ctx)
		case "13":
			c.clearAll(ctx)
		default:
			fmt.Println("❌ Invalid choice, please try again")
		}
	}
}

func printMenu() {
	line := strings.Repeat("=", 50)
	fmt.Println("\n" + line)
	fmt.Println("Chemistry Bot - Admin CLI")
	fmt.Println(line)
	fmt.Println("1. Add student")
	fmt.Println("2. View student")
	fmt.Println("3. List all students")
	fmt.Println("4. Update student schedule")
	fmt.Println("5. Add lecture to student")
	fmt.Println("6. Remove lecture from student")
	fmt.Println("7. Add lecture")
	fmt.Println("8. View lecture")
	fmt.Println("9. List all lectures")
	fmt.Println("10. Delete lecture")
	fmt.Println("11. Delete student")
	fmt.Println("12. Database statistics")
	fmt.Println("13. Clear all data")
	fmt.Println("0. Exit")
	fmt.Println(line)
}

func (c *cli) prompt(label string) string {
	fmt.Print(label)
	text, err := c.in.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (c *cli) promptInt64(label string) (int64, bool) {
	n, err := strconv.ParseInt(c.prompt(label), 10, 64)
	if err != nil {
		fmt.Println("❌ Invalid input, please try again")
		return 0, false
	}
	return n, true
}

func (c *cli) addStudent(ctx context.Context) {
	userID, ok := c.promptInt64("Enter student user ID: ")
	if !ok {
		return
	}
	username := c.prompt("Enter student username: ")
	schedule := c.prompt("Enter student schedule (e.g., 'пн,ср,пт 15:00-16:00'): ")

	_, err := c.students.Create(ctx, service.CreateStudentRequest{
		UserID:   userID,
		Username: username,
		Schedule: schedule,
	})
	switch {
	case errors.Is(err, appErrors.ErrAlreadyExists):
		fmt.Println("❌ Student already exists")
	case err != nil:
		fmt.Printf("❌ Error adding student: %v\n", err)
	default:
		fmt.Printf("✅ Student '%s' added successfully!\n", username)
	}
}

func (c *cli) viewStudent(ctx context.Context) {
	userID, ok := c.promptInt64("Enter student user ID: ")
	if !ok {
		return
	}

	student, err := c.students.Get(ctx, userID)
	if err != nil {
		fmt.Println("❌ Student not found")
		return
	}

	line := strings.Repeat("-", 40)
	fmt.Println("\n" + line)
	fmt.Printf("User ID: %d\n", student.UserID)
	fmt.Printf("Username: %s\n", student.Username)
	fmt.Printf("Schedule: %s\n", student.Schedule)
	fmt.Printf("Available lectures: %d\n", len(student.Lectures))
	for _, id := range student.Lectures {
		if lecture, err := c.lectures.Get(ctx, id); err == nil {
			fmt.Printf("  - %s\n", lecture.Name)
		}
	}
	fmt.Printf("Created at: %s\n", student.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Println(line)
}

func (c *cli) listStudents(ctx context.Context) {
	students, err := c.students.List(ctx)
	if err != nil {
		fmt.Printf("❌ Error: %v\n", err)
		return
	}
	if len(students) == 0 {
		fmt.Println("📭 No students found")
		return
	}

	line := strings.Repeat("-", 60)
	fmt.Println("\n" + line)
	fmt.Printf("%-15s %-15s %-20s %-10s\n", "ID", "Username", "Schedule", "Lectures")
	fmt.Println(line)
	for i := range students {
		fmt.Printf("%-15d %-15s %-20s %-10d\n",
			students[i].UserID, students[i].Username, students[i].Schedule, len(students[i].Lectures))
	}
	fmt.Println(line)
}

func (c *cli) updateSchedule(ctx context.Context) {
	userID, ok := c.promptInt64("Enter student user ID: ")
	if !ok {
		return
	}
	schedule := c.prompt("Enter new schedule: ")

	if err := c.students.UpdateSchedule(ctx, userID, schedule); err != nil {
		fmt.Printf("❌ Error updating schedule: %v\n", err)
		return
	}
	fmt.Println("✅ Schedule updated!")
}

// numberedLectures prints all lectures with 1-based indexes and returns
// the IDs in print order.
func (c *cli) numberedLectures(ctx context.Context) []string {
	all, err := c.lectures.All(ctx)
	if err != nil || len(all) == 0 {
		return nil
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Println("\nAvailable lectures:")
	for i, id := range ids {
		fmt.Printf("  %d. %s (ID: %s)\n", i+1, all[id], id)
	}
	return ids
}

func (c *cli) pickLecture(ctx context.Context) (string, bool) {
	ids := c.numberedLectures(ctx)
	if len(ids) == 0 {
		fmt.Println("❌ No lectures available")
		return "", false
	}

	choice, ok := c.promptInt64("Enter lecture number: ")
	if !ok {
		return "", false
	}
	if choice < 1 || choice > int64(len(ids)) {
		fmt.Println("❌ Invalid choice")
		return "", false
	}
	return ids[choice-1], true
}

func (c *cli) grantLecture(ctx context.Context) {
	userID, ok := c.promptInt64("Enter student user ID: ")
	if !ok {
		return
	}
	lectureID, ok := c.pickLecture(ctx)
	if !ok {
		return
	}

	if err := c.students.Grant(ctx, userID, lectureID); err != nil {
		fmt.Printf("❌ Error adding lecture: %v\n", err)
		return
	}
	fmt.Println("✅ Lecture added to student!")
}

func (c *cli) revokeLecture(ctx context.Context) {
	userID, ok := c.promptInt64("Enter student user ID: ")
	if !ok {
		return
	}
	c.numberedLectures(ctx)
	lectureID := c.prompt("Enter lecture ID: ")

	if err := c.students.Revoke(ctx, userID, lectureID); err != nil {
		fmt.Printf("❌ Error removing lecture: %v\n", err)
		return
	}
	fmt.Println("✅ Lecture removed from student!")
}

func (c *cli) addLecture(ctx context.Context) {
	name := c.prompt("Enter lecture name: ")
	filename := c.prompt("Enter filename (e.g., 'lecture.pdf'): ")
	filepath := c.prompt("Enter file path: ")

	if categories, err := c.categories.All(ctx); err == nil {
		fmt.Printf("Existing categories: %s\n", strings.Join(categories, ", "))
	}
	category := c.prompt("Enter category (empty for default): ")

	lecture, err := c.lectures.Add(ctx, service.AddLectureRequest{
		Name:     name,
		Filename: filename,
		Filepath: filepath,
		Category: category,
	})
	if err != nil {
		fmt.Printf("❌ Error adding lecture: %v\n", err)
		return
	}
	fmt.Printf("✅ Lecture '%s' added successfully!\n", name)
	fmt.Printf("   Lecture ID: %s\n", lecture.ID)
}

func (c *cli) viewLecture(ctx context.Context) {
	lectureID, ok := c.pickLecture(ctx)
	if !ok {
		return
	}

	lecture, err := c.lectures.Get(ctx, lectureID)
	if err != nil {
		fmt.Println("❌ Lecture not found")
		return
	}

	line := strings.Repeat("-", 40)
	fmt.Println("\n" + line)
	fmt.Printf("ID: %s\n", lecture.ID)
	fmt.Printf("Name: %s\n", lecture.Name)
	fmt.Printf("Category: %s\n", lecture.Category)
	fmt.Printf("Filename: %s\n", lecture.File.Filename)
	fmt.Printf("Path: %s\n", lecture.File.Filepath)
	fmt.Printf("Created: %s\n", lecture.File.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Println(line)
}

func (c *cli) listLectures(ctx context.Context) {
	all, err := c.lectures.All(ctx)
	if err != nil {
		fmt.Printf("❌ Error: %v\n", err)
		return
	}
	if len(all) == 0 {
		fmt.Println("📭 No lectures found")
		return
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	line := strings.Repeat("-", 50)
	fmt.Println("\n" + line)
	fmt.Printf("%-5s %-30s %-15s\n", "#", "Name", "ID")
	fmt.Println(line)
	for i, id := range ids {
		fmt.Printf("%-5d %-30s %-15s\n", i+1, all[id], id)
	}
	fmt.Println(line)
}

func (c *cli) deleteLecture(ctx context.Context) {
	lectureID, ok := c.pickLecture(ctx)
	if !ok {
		return
	}

	lecture, err := c.lectures.Get(ctx, lectureID)
	if err != nil {
		fmt.Println("❌ Lecture not found")
		return
	}

	confirm := c.prompt(fmt.Sprintf("Are you sure you want to delete '%s'? (yes/no): ", lecture.Name))
	if !strings.EqualFold(confirm, "yes") {
		fmt.Println("❌ Deletion cancelled")
		return
	}

	revoked, err := c.lectures.Delete(ctx, lectureID)
	if err != nil {
		fmt.Printf("❌ Error deleting lecture: %v\n", err)
		return
	}
	fmt.Println("✅ Lecture deleted!")
	if revoked > 0 {
		fmt.Printf("   Removed from %d student(s)\n", revoked)
	}
}

func (c *cli) deleteStudent(ctx context.Context) {
	c.listStudents(ctx)

	userID, ok := c.promptInt64("Enter student user ID to delete: ")
	if !ok {
		return
	}

	student, err := c.students.Get(ctx, userID)
	if err != nil {
		fmt.Println("❌ Student not found")
		return
	}

	confirm := c.prompt(fmt.Sprintf("Are you sure you want to delete '%s'? (yes/no): ", student.Username))
	if !strings.EqualFold(confirm, "yes") {
		fmt.Println("❌ Deletion cancelled")
		return
	}

	if err := c.students.Delete(ctx, userID); err != nil {
		fmt.Printf("❌ Error deleting student: %v\n", err)
		return
	}
	fmt.Println("✅ Student deleted!")
}

func (c *cli) showStats(ctx context.Context) {
	stats, err := c.stats.Stats(ctx)
	if err != nil {
		fmt.Printf("❌ Error: %v\n", err)
		return
	}

	line := strings.Repeat("-", 40)
	fmt.Println("\n" + line)
	fmt.Println("📊 Database Statistics")
	fmt.Println(line)
	fmt.Printf("Total students: %d\n", stats.Students)
	fmt.Printf("Total lectures: %d\n", stats.Lectures)
	fmt.Printf("Total database keys: %d\n", stats.TotalKeys)
	fmt.Println(line)
}

func (c *cli) clearAll(ctx context.Context) {
	fmt.Println("\n⚠️  WARNING: This will delete ALL data!")
	if c.prompt("Type 'DELETE ALL' to confirm: ") != "DELETE ALL" {
		fmt.Println("❌ Operation cancelled")
		return
	}

	if err := c.stats.ClearAll(ctx); err != nil {
		fmt.Printf("❌ Error clearing data: %v\n", err)
		return
	}
	fmt.Println("✅ All data cleared!")
}
