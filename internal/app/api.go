package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coindxter/class-music/internal/discovery"
	"github.com/coindxter/class-music/internal/models"
	"github.com/coindxter/class-music/internal/provider"
	"github.com/coindxter/class-music/internal/store"
	"github.com/coindxter/class-music/internal/worker"
)

// GET /
func (a *App) rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Backend is running!"})
}

type createClassRequest struct {
	Name string `json:"name" binding:"required"`
}

// POST /classes
func (a *App) createClassHandler(c *gin.Context) {
	var req createClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	class, err := a.Store.CreateClass(c.Request.Context(), req.Name)
	if err != nil {
		a.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, class)
}

// GET /classes
func (a *App) listClassesHandler(c *gin.Context) {
	classes, err := a.Store.ListClasses(c.Request.Context())
	if err != nil {
		a.storeError(c, err)
		return
	}
	if classes == nil {
		classes = []models.ClassPeriod{}
	}
	c.JSON(http.StatusOK, classes)
}

// DELETE /classes/:id
func (a *App) deleteClassHandler(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := paramID(c)
	if !ok {
		return
	}
	songs, err := a.Store.SongsUnderClass(ctx, id)
	if err != nil {
		a.storeError(c, err)
		return
	}
	if err := a.Store.DeleteClass(ctx, id); err != nil {
		a.storeError(c, err)
		return
	}
	a.removeSongFiles(c, songs)
	c.Status(http.StatusOK)
}

type createStudentRequest struct {
	Name    string `json:"name" binding:"required"`
	ClassID int64  `json:"class_id" binding:"required"`
}

// POST /students
func (a *App) createStudentHandler(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	student, err := a.Store.CreateStudent(c.Request.Context(), req.Name, req.ClassID)
	if err != nil {
		a.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// GET /classes/:id/students
func (a *App) listStudentsHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	students, err := a.Store.ListStudentsByClass(c.Request.Context(), id)
	if err != nil {
		a.storeError(c, err)
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	c.JSON(http.StatusOK, students)
}

// DELETE /students/:id
func (a *App) deleteStudentHandler(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := paramID(c)
	if !ok {
		return
	}
	songs, err := a.Store.SongsUnderStudent(ctx, id)
	if err != nil {
		a.storeError(c, err)
		return
	}
	if err := a.Store.DeleteStudent(ctx, id); err != nil {
		a.storeError(c, err)
		return
	}
	a.removeSongFiles(c, songs)
	c.Status(http.StatusOK)
}

type createArtistRequest struct {
	Name      string `json:"name" binding:"required"`
	StudentID int64  `json:"student_id" binding:"required"`
}

// POST /artists
func (a *App) createArtistHandler(c *gin.Context) {
	var req createArtistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	artist, err := a.Store.CreateArtist(c.Request.Context(), req.Name, req.StudentID)
	if err != nil {
		a.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, artist)
}

// GET /students/:id/artists
func (a *App) listArtistsHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	artists, err := a.Store.ListArtistsByStudent(c.Request.Context(), id)
	if err != nil {
		a.storeError(c, err)
		return
	}
	if artists == nil {
		artists = []models.Artist{}
	}
	c.JSON(http.StatusOK, artists)
}

// DELETE /artists/:id
func (a *App) deleteArtistHandler(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := paramID(c)
	if !ok {
		return
	}
	songs, err := a.Store.ListSongsByArtist(ctx, id)
	if err != nil {
		a.storeError(c, err)
		return
	}
	if err := a.Store.DeleteArtist(ctx, id); err != nil {
		a.storeError(c, err)
		return
	}
	a.removeSongFiles(c, songs)
	c.Status(http.StatusOK)
}

type createSongRequest struct {
	Title    string `json:"title" binding:"required"`
	Link     string `json:"link"`
	ArtistID int64  `json:"artist_id" binding:"required"`
}

// POST /songs
func (a *App) createSongHandler(c *gin.Context) {
	ctx := c.Request.Context()
	var req createSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	existing, err := a.Store.FindSongByTitleAndArtist(ctx, req.Title, req.ArtistID)
	if err != nil {
		a.storeError(c, err)
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"conflict": "Song already present", "song": existing})
		return
	}
	song, err := a.Store.InsertSong(ctx, req.Title, req.Link, req.ArtistID)
	if errors.Is(err, store.ErrSongExists) {
		c.JSON(http.StatusConflict, gin.H{"conflict": "Song already present", "song": song})
		return
	}
	if err != nil {
		a.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, song)
}

// GET /artists/:id/songs
func (a *App) listSongsHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	songs, err := a.Store.ListSongsByArtist(c.Request.Context(), id)
	if err != nil {
		a.storeError(c, err)
		return
	}
	if songs == nil {
		songs = []models.Song{}
	}
	c.JSON(http.StatusOK, songs)
}

// DELETE /songs/:id
func (a *App) deleteSongHandler(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := paramID(c)
	if !ok {
		return
	}
	song, err := a.Store.GetSong(ctx, id)
	if err != nil {
		a.storeError(c, err)
		return
	}
	if err := a.Store.DeleteSong(ctx, id); err != nil {
		a.storeError(c, err)
		return
	}
	a.removeSongFiles(c, []models.Song{song})
	c.Status(http.StatusOK)
}

type autoSongRequest struct {
	Title string `json:"title" binding:"required"`
}

// POST /artists/:id/songs/auto
func (a *App) autoSongHandler(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req autoSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	song, created, err := a.runner.DiscoverSong(c.Request.Context(), id, req.Title)
	switch {
	case errors.Is(err, store.ErrArtistNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "artist not found"})
		return
	case errors.Is(err, provider.ErrUnavailable):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	case errors.Is(err, discovery.ErrNoCandidate):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		a.storeError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, song)
}

// GET /discovery/run
func (a *App) discoveryRunHandler(c *gin.Context) {
	summary, err := a.runner.DiscoverAll(c.Request.Context())
	if err != nil {
		a.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GET /students/:id/downloads
func (a *App) downloadsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := paramID(c)
	if !ok {
		return
	}
	if _, err := a.Store.GetStudent(ctx, id); err != nil {
		a.storeError(c, err)
		return
	}
	result, err := a.orchestrator.DownloadPending(ctx, id)
	if err != nil {
		a.storeError(c, err)
		return
	}
	if result.Succeeded == nil {
		result.Succeeded = []string{}
	}
	if result.Failed == nil {
		result.Failed = []worker.FailedSong{}
	}
	c.JSON(http.StatusOK, result)
}

// GET /downloads/:filename
func (a *App) downloadFileHandler(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" || strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid filename"})
		return
	}
	path := filepath.Join(a.config.DownloadDir, filename)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.Header("Content-Type", "audio/mpeg")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s", filename))
	c.File(path)
}

type artistTree struct {
	Name  string   `json:"name"`
	Songs []string `json:"songs"`
}

type studentTree struct {
	Name    string       `json:"name"`
	Artists []artistTree `json:"artists"`
}

type classTree struct {
	Class    string        `json:"class"`
	Students []studentTree `json:"students"`
}

// GET /full
func (a *App) fullTreeHandler(c *gin.Context) {
	ctx := c.Request.Context()
	classes, err := a.Store.ListClasses(ctx)
	if err != nil {
		a.storeError(c, err)
		return
	}
	tree := []classTree{}
	for _, class := range classes {
		ct := classTree{Class: class.Name, Students: []studentTree{}}
		students, err := a.Store.ListStudentsByClass(ctx, class.ID)
		if err != nil {
			a.storeError(c, err)
			return
		}
		for _, student := range students {
			st := studentTree{Name: student.Name, Artists: []artistTree{}}
			artists, err := a.Store.ListArtistsByStudent(ctx, student.ID)
			if err != nil {
				a.storeError(c, err)
				return
			}
			for _, artist := range artists {
				at := artistTree{Name: artist.Name, Songs: []string{}}
				songs, err := a.Store.ListSongsByArtist(ctx, artist.ID)
				if err != nil {
					a.storeError(c, err)
					return
				}
				for _, song := range songs {
					at.Songs = append(at.Songs, song.Title)
				}
				st.Artists = append(st.Artists, at)
			}
			ct.Students = append(ct.Students, st)
		}
		tree = append(tree, ct)
	}
	c.JSON(http.StatusOK, tree)
}

// removeSongFiles deletes the backing files of already-deleted song
// records. A missing file is a skip, anything else is logged; the
// request outcome is not affected either way.
func (a *App) removeSongFiles(c *gin.Context, songs []models.Song) {
	ctx := c.Request.Context()
	for _, song := range songs {
		if song.FilePath == nil {
			continue
		}
		path := filepath.Join(a.config.DownloadDir, *song.FilePath)
		err := os.Remove(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			a.logger.DebugContext(ctx, fmt.Sprintf("file already gone: %s", path))
		case err != nil:
			a.logger.ErrorContext(ctx, fmt.Sprintf("failed to remove %s: %v", path, err))
		}
	}
}

func (a *App) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrArtistNotFound),
		errors.Is(err, store.ErrSongNotFound),
		errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		a.logger.ErrorContext(c.Request.Context(), err.Error())
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
