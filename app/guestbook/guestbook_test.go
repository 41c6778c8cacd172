package guestbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBook_Add(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "messages.txt")
	book, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, path, book.String())

	require.NoError(t, book.Add(Message{Name: "Tony", Email: "t@example.com", Text: "你好"}))
	require.NoError(t, book.Add(Message{Name: "", Email: "", Text: "line1\nline2\r\nline3"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "姓名: Tony, 邮箱: t@example.com, 留言: 你好\n姓名: , 邮箱: , 留言: line1 line2 line3\n", string(data))
}

func TestMessage_String(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"plain", Message{Name: "Tony", Email: "t@example.com", Text: "hi"}, "姓名: Tony, 邮箱: t@example.com, 留言: hi"},
		{"spaces kept", Message{Name: "Tony  Stark", Text: "a   b\tc "}, "姓名: Tony  Stark, 邮箱: , 留言: a   b\tc "},
		{"line breaks", Message{Text: "a\r\nb\nc\rd\n\ne"}, "姓名: , 邮箱: , 留言: a b c d  e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.msg.String())
		})
	}
}

func TestBook_AddKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.txt")
	require.NoError(t, os.WriteFile(path, []byte("old line\n"), 0o600))

	book, err := New(path)
	require.NoError(t, err)
	require.NoError(t, book.Add(Message{Name: "a", Email: "b", Text: "c"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "old line\n"))
	assert.Contains(t, string(data), "姓名: a, 邮箱: b, 留言: c\n")
}

func TestBook_AddConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.txt")
	book, err := New(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, book.Add(Message{Name: fmt.Sprintf("user%d", i), Text: "hi"}))
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 20)
}

func TestBook_AddFailure(t *testing.T) {
	dir := t.TempDir()
	book, err := New(dir) // directory, can't be opened for writing
	require.NoError(t, err)
	err = book.Add(Message{Name: "a"})
	require.Error(t, err)
}
