package store

import (
	"context"
	"errors"

	"github.com/coindxter/class-music/internal/models"
)

var (
	// ErrDatabase is returned for any database related error
	ErrDatabase = errors.New("database error")
	// ErrArtistNotFound signals a song insert against a missing artist
	ErrArtistNotFound = errors.New("artist not found")
	// ErrSongNotFound signals an update against a song deleted meanwhile
	ErrSongNotFound = errors.New("song not found")
	// ErrSongExists signals an insert that lost the race against an
	// identical (artist, title) pair; the existing record accompanies it
	ErrSongExists = errors.New("song already registered")
	ErrNotFound     = errors.New("not found")
)

// Store is the persistence boundary shared by the roster CRUD layer
// and the acquisition pipeline.
type Store interface {
	// song registry
	FindSongByTitleAndArtist(ctx context.Context, title string, artistID int64) (*models.Song, error)
	InsertSong(ctx context.Context, title, link string, artistID int64) (models.Song, error)
	MarkDownloaded(ctx context.Context, songID int64, filePath string) error
	ListPendingByStudent(ctx context.Context, studentID int64) ([]models.Song, error)
	ListSongsByArtist(ctx context.Context, artistID int64) ([]models.Song, error)
	GetSong(ctx context.Context, id int64) (models.Song, error)
	DeleteSong(ctx context.Context, id int64) error

	// roster
	CreateClass(ctx context.Context, name string) (models.ClassPeriod, error)
	ListClasses(ctx context.Context) ([]models.ClassPeriod, error)
	DeleteClass(ctx context.Context, id int64) error

	CreateStudent(ctx context.Context, name string, classID int64) (models.Student, error)
	ListStudentsByClass(ctx context.Context, classID int64) ([]models.Student, error)
	GetStudent(ctx context.Context, id int64) (models.Student, error)
	DeleteStudent(ctx context.Context, id int64) error

	CreateArtist(ctx context.Context, name string, studentID int64) (models.Artist, error)
	ListArtistsByStudent(ctx context.Context, studentID int64) ([]models.Artist, error)
	ListArtists(ctx context.Context) ([]models.Artist, error)
	GetArtist(ctx context.Context, id int64) (models.Artist, error)
	DeleteArtist(ctx context.Context, id int64) error

	// SongsUnder returns every song below a class, student or artist,
	// used for file cleanup before a cascading delete.
	SongsUnderClass(ctx context.Context, classID int64) ([]models.Song, error)
	SongsUnderStudent(ctx context.Context, studentID int64) ([]models.Song, error)

	Close() error
}
