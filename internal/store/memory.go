package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/coindxter/class-music/internal/models"
)

type memory struct {
	mu       sync.Mutex
	nextID   int64
	classes  map[int64]models.ClassPeriod
	students map[int64]models.Student
	artists  map[int64]models.Artist
	songs    map[int64]models.Song
}

// NewMemoryStore initializes an in-memory store, used in tests.
func NewMemoryStore() Store {
	return &memory{
		classes:  make(map[int64]models.ClassPeriod),
		students: make(map[int64]models.Student),
		artists:  make(map[int64]models.Artist),
		songs:    make(map[int64]models.Song),
	}
}

func (m *memory) Close() error {
	return nil
}

func (m *memory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memory) FindSongByTitleAndArtist(_ context.Context, title string, artistID int64) (*models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, song := range m.songs {
		if song.ArtistID == artistID && strings.EqualFold(song.Title, title) {
			s := song
			return &s, nil
		}
	}
	return nil, nil
}

func (m *memory) InsertSong(_ context.Context, title, link string, artistID int64) (models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.artists[artistID]; !ok {
		return models.Song{}, ErrArtistNotFound
	}
	for _, existing := range m.songs {
		if existing.ArtistID == artistID && strings.EqualFold(existing.Title, title) {
			return existing, ErrSongExists
		}
	}
	song := models.Song{ID: m.id(), Title: title, Link: link, ArtistID: artistID}
	m.songs[song.ID] = song
	return song, nil
}

func (m *memory) MarkDownloaded(_ context.Context, songID int64, filePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	song, ok := m.songs[songID]
	if !ok {
		return ErrSongNotFound
	}
	song.FilePath = &filePath
	m.songs[songID] = song
	return nil
}

func (m *memory) ListPendingByStudent(_ context.Context, studentID int64) ([]models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var songs []models.Song
	for _, song := range m.songs {
		artist, ok := m.artists[song.ArtistID]
		if ok && artist.StudentID == studentID && song.Pending() {
			songs = append(songs, song)
		}
	}
	sortSongs(songs)
	return songs, nil
}

func (m *memory) ListSongsByArtist(_ context.Context, artistID int64) ([]models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var songs []models.Song
	for _, song := range m.songs {
		if song.ArtistID == artistID {
			songs = append(songs, song)
		}
	}
	sortSongs(songs)
	return songs, nil
}

func (m *memory) GetSong(_ context.Context, id int64) (models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	song, ok := m.songs[id]
	if !ok {
		return models.Song{}, ErrSongNotFound
	}
	return song, nil
}

func (m *memory) DeleteSong(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.songs[id]; !ok {
		return ErrSongNotFound
	}
	delete(m.songs, id)
	return nil
}

func (m *memory) CreateClass(_ context.Context, name string) (models.ClassPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := models.ClassPeriod{ID: m.id(), Name: name}
	m.classes[c.ID] = c
	return c, nil
}

func (m *memory) ListClasses(_ context.Context) ([]models.ClassPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var classes []models.ClassPeriod
	for _, c := range m.classes {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].ID < classes[j].ID })
	return classes, nil
}

func (m *memory) DeleteClass(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.classes[id]; !ok {
		return ErrNotFound
	}
	delete(m.classes, id)
	for sid, s := range m.students {
		if s.ClassID == id {
			m.deleteStudentLocked(sid)
		}
	}
	return nil
}

func (m *memory) CreateStudent(_ context.Context, name string, classID int64) (models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.classes[classID]; !ok {
		return models.Student{}, ErrNotFound
	}
	s := models.Student{ID: m.id(), Name: name, ClassID: classID}
	m.students[s.ID] = s
	return s, nil
}

func (m *memory) ListStudentsByClass(_ context.Context, classID int64) ([]models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var students []models.Student
	for _, s := range m.students {
		if s.ClassID == classID {
			students = append(students, s)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (m *memory) GetStudent(_ context.Context, id int64) (models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return models.Student{}, ErrNotFound
	}
	return s, nil
}

func (m *memory) DeleteStudent(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[id]; !ok {
		return ErrNotFound
	}
	m.deleteStudentLocked(id)
	return nil
}

func (m *memory) deleteStudentLocked(id int64) {
	delete(m.students, id)
	for aid, a := range m.artists {
		if a.StudentID == id {
			m.deleteArtistLocked(aid)
		}
	}
}

func (m *memory) deleteArtistLocked(id int64) {
	delete(m.artists, id)
	for sid, song := range m.songs {
		if song.ArtistID == id {
			delete(m.songs, sid)
		}
	}
}

func (m *memory) CreateArtist(_ context.Context, name string, studentID int64) (models.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[studentID]; !ok {
		return models.Artist{}, ErrNotFound
	}
	a := models.Artist{ID: m.id(), Name: name, StudentID: studentID}
	m.artists[a.ID] = a
	return a, nil
}

func (m *memory) ListArtistsByStudent(_ context.Context, studentID int64) ([]models.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var artists []models.Artist
	for _, a := range m.artists {
		if a.StudentID == studentID {
			artists = append(artists, a)
		}
	}
	sortArtists(artists)
	return artists, nil
}

func (m *memory) ListArtists(_ context.Context) ([]models.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var artists []models.Artist
	for _, a := range m.artists {
		artists = append(artists, a)
	}
	sortArtists(artists)
	return artists, nil
}

func (m *memory) GetArtist(_ context.Context, id int64) (models.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.artists[id]
	if !ok {
		return models.Artist{}, ErrArtistNotFound
	}
	return a, nil
}

func (m *memory) DeleteArtist(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.artists[id]; !ok {
		return ErrArtistNotFound
	}
	m.deleteArtistLocked(id)
	return nil
}

func (m *memory) SongsUnderClass(_ context.Context, classID int64) ([]models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var songs []models.Song
	for _, song := range m.songs {
		artist, ok := m.artists[song.ArtistID]
		if !ok {
			continue
		}
		student, ok := m.students[artist.StudentID]
		if ok && student.ClassID == classID {
			songs = append(songs, song)
		}
	}
	sortSongs(songs)
	return songs, nil
}

func (m *memory) SongsUnderStudent(_ context.Context, studentID int64) ([]models.Song, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var songs []models.Song
	for _, song := range m.songs {
		artist, ok := m.artists[song.ArtistID]
		if ok && artist.StudentID == studentID {
			songs = append(songs, song)
		}
	}
	sortSongs(songs)
	return songs, nil
}

func sortSongs(songs []models.Song) {
	sort.Slice(songs, func(i, j int) bool { return songs[i].ID < songs[j].ID })
}

func sortArtists(artists []models.Artist) {
	sort.Slice(artists, func(i, j int) bool { return artists[i].ID < artists[j].ID })
}
