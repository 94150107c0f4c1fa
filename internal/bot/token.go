package bot

import "strings"

// Callback payloads are "action" or "action:arg[:arg]". The delimiter is
// safe because user IDs are digits, lecture IDs match lecture_<ts>_<hex>
// and category tokens are 8 hex chars.
const tokenSep = ":"

// Parameterless actions.
const (
	actNoop      = "noop"
	actBackAdmin = "back_admin"
	actBackMenu  = "back_menu"
	actExitView  = "exit_view"

	actAdminStudents      = "adm_students"
	actAdminAddStudent    = "adm_add_student"
	actAdminStudentInfo   = "adm_student_info"
	actAdminEditStudent   = "adm_edit_student"
	actAdminBecomeStudent = "adm_become_student"
	actAdminDeleteStudent = "adm_delete_student"

	actAdminLectures           = "adm_lectures"
	actAdminAddLecture         = "adm_add_lecture"
	actAdminAddLectureNew      = "adm_add_new"
	actAdminAddLectureExisting = "adm_add_existing"
	actAdminViewAll            = "adm_view_all"
	actAdminDeleteLecture      = "adm_delete_lecture"
	actAdminCategories         = "adm_categories"
	actAddCategory             = "add_cat"
	actAddCategoryForLecture   = "add_cat_lec"

	actStudentSchedule     = "my_schedule"
	actStudentHomework     = "my_homework"
	actStudentLectures     = "my_lectures"
	actStudentSettings     = "my_settings"
	actStudentManage       = "my_manage"
	actStudentEditSchedule = "my_edit_schedule"
)

// Parameterized actions; arguments noted per action.
const (
	actStudentInfo   = "info"        // student id
	actEditStudent   = "edit"        // student id
	actBecomeStudent = "become"      // student id
	actDeleteStudent = "del_student" // student id

	actEditAddLecture       = "edit_add"        // student id
	actEditAddLectureCat    = "edit_add_cat"    // student id, category token
	actGrantLecture         = "grant"           // student id, lecture id
	actEditRemoveLecture    = "edit_remove"     // student id
	actEditRemoveLectureCat = "edit_remove_cat" // student id, category token
	actRevokeLecture        = "revoke"          // student id, lecture id
	actEditSchedule         = "edit_schedule"   // student id
	actEditHomework         = "edit_homework"   // student id

	actViewCategory      = "view_cat"     // category token
	actSelectCatNew      = "cat_new"      // category token
	actSelectCatExisting = "cat_existing" // category token
	actSelectCatDelete   = "cat_delete"   // category token
	actDeleteCategory    = "del_cat"      // category token
	actSelectExisting    = "pick_lec"     // lecture id
	actMoveLecture       = "move_lec"     // lecture id, category token
	actDeleteLecture     = "del_lec"      // lecture id

	actStudentLectureCat = "my_cat"        // category token
	actStudentManageCat  = "my_manage_cat" // category token
	actDownloadLecture   = "download"      // lecture id
	actDropLecture       = "drop"          // lecture id
)

func encodeToken(action string, args ...string) string {
	if len(args) == 0 {
		return action
	}
	return action + tokenSep + strings.Join(args, tokenSep)
}

func decodeToken(data string) (string, []string) {
	parts := strings.Split(data, tokenSep)
	if len(parts) == 1 {
		return parts[0], nil
	}
	return parts[0], parts[1:]
}
