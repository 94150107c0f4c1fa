package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeToken(t *testing.T) {
	assert.Equal(t, "noop", encodeToken(actNoop))
	assert.Equal(t, "edit:123456", encodeToken(actEditStudent, "123456"))
	assert.Equal(t, "grant:123456:lecture_1700000000_deadbeef",
		encodeToken(actGrantLecture, "123456", "lecture_1700000000_deadbeef"))
}

func TestDecodeToken(t *testing.T) {
	action, args := decodeToken("noop")
	assert.Equal(t, "noop", action)
	assert.Nil(t, args)

	action, args = decodeToken("my_cat:8d777f38")
	assert.Equal(t, "my_cat", action)
	assert.Equal(t, []string{"8d777f38"}, args)

	action, args = decodeToken("move_lec:lecture_1700000000_deadbeef:8d777f38")
	assert.Equal(t, "move_lec", action)
	assert.Equal(t, []string{"lecture_1700000000_deadbeef", "8d777f38"}, args)
}

func TestTokenRoundTrip(t *testing.T) {
	data := encodeToken(actEditAddLectureCat, "987654321", "0a1b2c3d")
	action, args := decodeToken(data)
	assert.Equal(t, actEditAddLectureCat, action)
	assert.Equal(t, []string{"987654321", "0a1b2c3d"}, args)
}
