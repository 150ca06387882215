package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coindxter/class-music/internal/discovery"
	"github.com/coindxter/class-music/internal/models"
	"github.com/coindxter/class-music/internal/provider"
)

func seedRoster(t *testing.T, a *App) (classID, studentID, artistID int64) {
	t.Helper()
	ctx := context.Background()
	class, err := a.Store.CreateClass(ctx, "Period 1")
	require.NoError(t, err)
	student, err := a.Store.CreateStudent(ctx, "Jordan", class.ID)
	require.NoError(t, err)
	artist, err := a.Store.CreateArtist(ctx, "Nova", student.ID)
	require.NoError(t, err)
	return class.ID, student.ID, artist.ID
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRosterCrudFlow(t *testing.T) {
	_, router := newTestApp(t)

	w := doJSON(t, router, http.MethodPost, "/classes", gin.H{"name": "Period 1"})
	require.Equal(t, http.StatusCreated, w.Code)
	class := decode[models.ClassPeriod](t, w)
	assert.Equal(t, "Period 1", class.Name)

	w = doJSON(t, router, http.MethodPost, "/students", gin.H{"name": "Jordan", "class_id": class.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	student := decode[models.Student](t, w)

	w = doJSON(t, router, http.MethodPost, "/artists", gin.H{"name": "Nova", "student_id": student.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	artist := decode[models.Artist](t, w)

	w = doJSON(t, router, http.MethodPost, "/songs", gin.H{"title": "Bright", "artist_id": artist.ID, "link": "https://example.com/watch?v=abc"})
	require.Equal(t, http.StatusCreated, w.Code)
	song := decode[models.Song](t, w)
	assert.Nil(t, song.FilePath)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/artists/%d/songs", artist.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	songs := decode[[]models.Song](t, w)
	require.Len(t, songs, 1)
	assert.Equal(t, "Bright", songs[0].Title)

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/songs/%d", song.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/artists/%d/songs", artist.ID), nil)
	assert.Equal(t, "[]", w.Body.String())
}

func TestCreateClassValidation(t *testing.T) {
	_, router := newTestApp(t)

	w := doJSON(t, router, http.MethodPost, "/classes", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateStudentUnknownClass(t *testing.T) {
	_, router := newTestApp(t)

	w := doJSON(t, router, http.MethodPost, "/students", gin.H{"name": "Jordan", "class_id": 99})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSongConflict(t *testing.T) {
	a, router := newTestApp(t)
	_, _, artistID := seedRoster(t, a)

	body := gin.H{"title": "Bright", "artist_id": artistID}
	w := doJSON(t, router, http.MethodPost, "/songs", body)
	require.Equal(t, http.StatusCreated, w.Code)

	// same title, case differs: still a duplicate
	w = doJSON(t, router, http.MethodPost, "/songs", gin.H{"title": "bright", "artist_id": artistID})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFullTree(t *testing.T) {
	a, router := newTestApp(t)
	_, _, artistID := seedRoster(t, a)
	_, err := a.Store.InsertSong(context.Background(), "Bright", "https://example.com/watch?v=abc", artistID)
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodGet, "/full", nil)

	require.Equal(t, http.StatusOK, w.Code)
	tree := decode[[]classTree](t, w)
	require.Len(t, tree, 1)
	assert.Equal(t, "Period 1", tree[0].Class)
	require.Len(t, tree[0].Students, 1)
	require.Len(t, tree[0].Students[0].Artists, 1)
	assert.Equal(t, []string{"Bright"}, tree[0].Students[0].Artists[0].Songs)
}

func TestDeleteArtistRemovesBackingFiles(t *testing.T) {
	a, router := newTestApp(t)
	_, _, artistID := seedRoster(t, a)
	ctx := context.Background()
	song, err := a.Store.InsertSong(ctx, "Bright", "https://example.com/watch?v=abc", artistID)
	require.NoError(t, err)
	require.NoError(t, a.Store.MarkDownloaded(ctx, song.ID, "Bright-abc.mp3"))

	path := filepath.Join(a.config.DownloadDir, "Bright-abc.mp3")
	require.NoError(t, os.WriteFile(path, []byte("mp3"), 0o644))

	w := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/artists/%d", artistID), nil)

	require.Equal(t, http.StatusOK, w.Code)
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDeleteClassToleratesMissingFiles(t *testing.T) {
	a, router := newTestApp(t)
	classID, _, artistID := seedRoster(t, a)
	ctx := context.Background()
	song, err := a.Store.InsertSong(ctx, "Bright", "https://example.com/watch?v=abc", artistID)
	require.NoError(t, err)
	require.NoError(t, a.Store.MarkDownloaded(ctx, song.ID, "Bright-abc.mp3"))

	// no file on disk: the delete must still succeed
	w := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/classes/%d", classID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDownloadsUnknownStudent(t *testing.T) {
	_, router := newTestApp(t)

	w := doJSON(t, router, http.MethodGet, "/students/99/downloads", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadsNothingPending(t *testing.T) {
	a, router := newTestApp(t)
	_, studentID, _ := seedRoster(t, a)

	w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/students/%d/downloads", studentID), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"downloaded": [], "failed": []}`, w.Body.String())
}

func TestDownloadFileHandler(t *testing.T) {
	a, router := newTestApp(t)

	w := doJSON(t, router, http.MethodGet, "/downloads/missing.mp3", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/downloads/evil..mp3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := filepath.Join(a.config.DownloadDir, "Bright-abc.mp3")
	require.NoError(t, os.WriteFile(path, []byte("mp3"), 0o644))
	w = doJSON(t, router, http.MethodGet, "/downloads/Bright-abc.mp3", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
}

type stubSearch struct {
	candidates []provider.Candidate
	err        error
}

func (s stubSearch) Name() string { return "stub" }

func (s stubSearch) Search(context.Context, string, string, int) ([]provider.Candidate, error) {
	return s.candidates, s.err
}

func stubRunner(a *App, s stubSearch) {
	a.runner = discovery.NewRunner(a.Store, s, nil, 8, time.Second, a.logger)
}

func TestAutoSongRegisters(t *testing.T) {
	a, router := newTestApp(t)
	_, _, artistID := seedRoster(t, a)
	stubRunner(a, stubSearch{candidates: []provider.Candidate{
		{Title: "Nova - Bright (Official Video)", Link: "https://example.com/watch?v=official"},
		{Title: "Nova - Bright (Lyrics)", Link: "https://example.com/watch?v=lyrics"},
	}})

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/artists/%d/songs/auto", artistID), gin.H{"title": "Bright"})
	require.Equal(t, http.StatusCreated, w.Code)
	song := decode[models.Song](t, w)
	assert.Equal(t, "Bright", song.Title)
	assert.Equal(t, "https://example.com/watch?v=lyrics", song.Link)

	// already registered: same record, no new insert
	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/artists/%d/songs/auto", artistID), gin.H{"title": "Bright"})
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[models.Song](t, w)
	assert.Equal(t, song.ID, again.ID)
}

func TestAutoSongProviderUnavailable(t *testing.T) {
	a, router := newTestApp(t)
	_, _, artistID := seedRoster(t, a)
	stubRunner(a, stubSearch{err: provider.ErrUnavailable})

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/artists/%d/songs/auto", artistID), gin.H{"title": "Bright"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAutoSongNoCandidate(t *testing.T) {
	a, router := newTestApp(t)
	_, _, artistID := seedRoster(t, a)
	stubRunner(a, stubSearch{candidates: []provider.Candidate{
		{Title: "Nova - Bright (Live)", Link: "https://example.com/watch?v=live"},
	}})

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/artists/%d/songs/auto", artistID), gin.H{"title": "Bright"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAutoSongUnknownArtist(t *testing.T) {
	a, router := newTestApp(t)
	stubRunner(a, stubSearch{})

	w := doJSON(t, router, http.MethodPost, "/artists/99/songs/auto", gin.H{"title": "Bright"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}
