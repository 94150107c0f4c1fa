package repository

import "fmt"

// Key layout in Redis. Entity records are JSON values under prefixed
// string keys; category membership lives in two hashes plus a name set.
const (
	studentKeyPrefix  = "student:"
	lectureKeyPrefix  = "lecture:"
	lectureFileSuffix = ":file"

	categoriesKey       = "categories"
	categoryLecturesKey = "category_lectures"
	categoryTokensKey   = "category_tokens"

	// legacyLecturesKey is the old flat id->name hash. Nothing writes it
	// anymore but the stats screen still reports its length.
	legacyLecturesKey = "lectures"
)

func studentKey(userID int64) string {
	return fmt.Sprintf("%s%d", studentKeyPrefix, userID)
}

func lectureKey(id string) string {
	return lectureKeyPrefix + id
}

func lectureFileKey(id string) string {
	return lectureKeyPrefix + id + lectureFileSuffix
}
