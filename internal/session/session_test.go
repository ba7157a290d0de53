package session

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LISSConsulting/LISSTech.Whisker/internal/store"
	"github.com/LISSConsulting/LISSTech.Whisker/internal/task"
)

func ptr(s string) *string { return &s }

// savedCall captures what a Save handed to the SaveFunc.
type savedCall struct {
	token   string
	names   []string
	records []store.Record
}

func newTestSession(t *testing.T, author string) (*Session, *[]savedCall, string) {
	t.Helper()
	var calls []savedCall
	s, err := New(Options{
		Author:  author,
		Checker: task.NewLabelChecker([]string{"cat", "dog"}),
		Save: func(archivePath, recordsPath, token string) error {
			names := tarNames(t, archivePath)
			recs, _, err := store.ReadFile(recordsPath)
			require.NoError(t, err)
			calls = append(calls, savedCall{token: token, names: names, records: recs})
			return nil
		},
		Now: func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	imgDir := t.TempDir()
	for _, name := range []string{"a.PNG", "b.jpg", "c.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(imgDir, name), []byte("img:"+name), 0644))
	}
	return s, &calls, imgDir
}

func tarNames(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var names []string
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	sort.Strings(names)
	return names
}

func TestNew_RequiresCheckerAndSave(t *testing.T) {
	_, err := New(Options{Save: func(string, string, string) error { return nil }})
	assert.Error(t, err)
	_, err = New(Options{Checker: task.NewLabelChecker([]string{"a"})})
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	s, _, _ := newTestSession(t, "alice")
	tok := s.Token()
	assert.True(t, strings.HasPrefix(tok, "20240506070809-"), tok)
	assert.True(t, strings.HasSuffix(tok, "__alice"), tok)
	assert.Equal(t, "alice", s.Author())

	anon, _, _ := newTestSession(t, "")
	assert.NotContains(t, anon.Token(), "__")
	assert.NotEqual(t, tok, anon.Token())
}

func TestAddGetSet(t *testing.T) {
	s, _, imgs := newTestSession(t, "")

	require.NoError(t, s.Add("a", filepath.Join(imgs, "a.PNG"), nil))
	require.NoError(t, s.Add("b", filepath.Join(imgs, "b.jpg"), ptr("cat")))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("a"))
	assert.False(t, s.Contains("zzz"))
	assert.Equal(t, 1, s.AnnotatedCount())

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Set("a", ptr("dog")))
	got, _ = s.Get("a")
	require.NotNil(t, got)
	assert.Equal(t, "dog", *got)

	require.NoError(t, s.Set("a", nil))
	got, _ = s.Get("a")
	assert.Nil(t, got)

	path, err := s.ImagePath("a")
	require.NoError(t, err)
	assert.Equal(t, "a.png", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "img:a.PNG", string(data))
}

func TestInvalidAnnotation(t *testing.T) {
	s, _, imgs := newTestSession(t, "")

	err := s.Add("a", filepath.Join(imgs, "a.PNG"), ptr("bird"))
	assert.True(t, errors.Is(err, task.ErrInvalidAnnotation))
	assert.False(t, s.Contains("a"))

	require.NoError(t, s.Add("a", filepath.Join(imgs, "a.PNG"), nil))
	err = s.Set("a", ptr("bird"))
	assert.True(t, errors.Is(err, task.ErrInvalidAnnotation))
}

func TestNotFound(t *testing.T) {
	s, _, _ := newTestSession(t, "")
	_, err := s.Get("x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Set("x", nil), ErrNotFound)
	assert.ErrorIs(t, s.Delete("x"), ErrNotFound)
	_, err = s.ImagePath("x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s, _, imgs := newTestSession(t, "")
	require.NoError(t, s.Add("a", filepath.Join(imgs, "a.PNG"), nil))
	path, _ := s.ImagePath("a")

	require.NoError(t, s.Delete("a"))
	assert.False(t, s.Contains("a"))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestSave_PacksOnlyAnnotated(t *testing.T) {
	s, calls, imgs := newTestSession(t, "bob")
	require.NoError(t, s.Add("a", filepath.Join(imgs, "a.PNG"), ptr("cat")))
	require.NoError(t, s.Add("b", filepath.Join(imgs, "b.jpg"), nil))
	require.NoError(t, s.Add("c", filepath.Join(imgs, "c.webp"), ptr("dog")))

	n, err := s.Save()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, s.Token(), call.token)
	assert.Equal(t, []string{"a.png", "c.webp"}, call.names)
	require.Len(t, call.records, 2)
	assert.Equal(t, "a", call.records[0].ID)
	assert.Equal(t, "bob", call.records[0].Author)
	assert.Equal(t, "dog", *call.records[1].Annotation)
}

func TestSave_PropagatesError(t *testing.T) {
	s, err := New(Options{
		Checker: task.NewLabelChecker([]string{"cat"}),
		Save:    func(string, string, string) error { return errors.New("disk full") },
	})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Save()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestClose(t *testing.T) {
	s, _, imgs := newTestSession(t, "")
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Error(t, s.Add("a", filepath.Join(imgs, "a.PNG"), nil))
	_, err := s.Save()
	assert.Error(t, err)
}
