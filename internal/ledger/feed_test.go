package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeed_OrderAndCancel(t *testing.T) {
	var f Feed[int]
	var got []string

	f.Subscribe(func(c Change[int]) { got = append(got, "first") })
	var cancelSecond func()
	cancelSecond = f.Subscribe(func(c Change[int]) {
		got = append(got, "second")
		cancelSecond()
	})
	f.Subscribe(func(c Change[int]) { got = append(got, "third") })

	f.added(1, 10)
	f.removed(1, 10)

	assert.Equal(t, []string{"first", "second", "third", "first", "third"}, got)
}

func TestChange_Kinds(t *testing.T) {
	old, v := 1, 2
	assert.True(t, Change[int]{New: &v}.Added())
	assert.False(t, Change[int]{New: &v}.Removed())
	assert.True(t, Change[int]{Old: &old}.Removed())
	assert.True(t, Change[int]{Old: &old, New: &v}.Added())
}
