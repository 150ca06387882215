package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/coindxter/class-music/internal/models"

	_ "modernc.org/sqlite" // load SQLite driver
)

//go:embed schema.sql
var schema string

func dbErr(s any) error {
	return fmt.Errorf("%w: %v", ErrDatabase, s)
}

// Database is the SQLite backed Store.
type Database struct {
	conn *sql.DB
}

// NewSqliteDb initializes the database at the given path
func NewSqliteDb(path string) (Store, error) {
	// the pragma goes into the DSN so every pooled connection
	// enforces foreign keys, cascading deletes rely on it
	conn, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, dbErr(err)
	}
	if _, err := conn.ExecContext(context.Background(), schema); err != nil {
		return nil, dbErr(err)
	}
	return &Database{conn: conn}, nil
}

// Close the database connection
func (db *Database) Close() error {
	return db.conn.Close()
}

func (db *Database) FindSongByTitleAndArtist(ctx context.Context, title string, artistID int64) (*models.Song, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, title, link, artist_id, file_path FROM songs
		 WHERE artist_id = ? AND title = ? COLLATE NOCASE`,
		artistID, title)
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr(err)
	}
	return &song, nil
}

func (db *Database) InsertSong(ctx context.Context, title, link string, artistID int64) (models.Song, error) {
	if _, err := db.GetArtist(ctx, artistID); err != nil {
		return models.Song{}, err
	}
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO songs (title, link, artist_id) VALUES (?, ?, ?)`,
		title, link, artistID)
	if err != nil {
		// a unique violation means another insert won the race
		if existing, ferr := db.FindSongByTitleAndArtist(ctx, title, artistID); ferr == nil && existing != nil {
			return *existing, ErrSongExists
		}
		return models.Song{}, dbErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Song{}, dbErr(err)
	}
	return models.Song{ID: id, Title: title, Link: link, ArtistID: artistID}, nil
}

func (db *Database) MarkDownloaded(ctx context.Context, songID int64, filePath string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE songs SET file_path = ? WHERE id = ?`, filePath, songID)
	if err != nil {
		return dbErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbErr(err)
	}
	if n == 0 {
		return ErrSongNotFound
	}
	return nil
}

func (db *Database) ListPendingByStudent(ctx context.Context, studentID int64) ([]models.Song, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT s.id, s.title, s.link, s.artist_id, s.file_path
		 FROM songs s JOIN artists a ON s.artist_id = a.id
		 WHERE a.student_id = ? AND s.file_path IS NULL
		 ORDER BY s.id`, studentID)
	if err != nil {
		return nil, dbErr(err)
	}
	return collectSongs(rows)
}

func (db *Database) ListSongsByArtist(ctx context.Context, artistID int64) ([]models.Song, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, link, artist_id, file_path FROM songs
		 WHERE artist_id = ? ORDER BY id`, artistID)
	if err != nil {
		return nil, dbErr(err)
	}
	return collectSongs(rows)
}

func (db *Database) GetSong(ctx context.Context, id int64) (models.Song, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, title, link, artist_id, file_path FROM songs WHERE id = ?`, id)
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Song{}, ErrSongNotFound
	}
	if err != nil {
		return models.Song{}, dbErr(err)
	}
	return song, nil
}

func (db *Database) DeleteSong(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return dbErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSongNotFound
	}
	return nil
}

func (db *Database) CreateClass(ctx context.Context, name string) (models.ClassPeriod, error) {
	res, err := db.conn.ExecContext(ctx, `INSERT INTO class_periods (name) VALUES (?)`, name)
	if err != nil {
		return models.ClassPeriod{}, dbErr(err)
	}
	id, _ := res.LastInsertId()
	return models.ClassPeriod{ID: id, Name: name}, nil
}

func (db *Database) ListClasses(ctx context.Context) ([]models.ClassPeriod, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name FROM class_periods ORDER BY id`)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()
	var classes []models.ClassPeriod
	for rows.Next() {
		var c models.ClassPeriod
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, dbErr(err)
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (db *Database) DeleteClass(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM class_periods WHERE id = ?`, id)
	if err != nil {
		return dbErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *Database) CreateStudent(ctx context.Context, name string, classID int64) (models.Student, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM class_periods WHERE id = ?`, classID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Student{}, ErrNotFound
	}
	if err != nil {
		return models.Student{}, dbErr(err)
	}
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO students (name, class_id) VALUES (?, ?)`, name, classID)
	if err != nil {
		return models.Student{}, dbErr(err)
	}
	id, _ = res.LastInsertId()
	return models.Student{ID: id, Name: name, ClassID: classID}, nil
}

func (db *Database) ListStudentsByClass(ctx context.Context, classID int64) ([]models.Student, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, class_id FROM students WHERE class_id = ? ORDER BY id`, classID)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()
	var students []models.Student
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.ClassID); err != nil {
			return nil, dbErr(err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

func (db *Database) GetStudent(ctx context.Context, id int64) (models.Student, error) {
	var s models.Student
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, class_id FROM students WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.ClassID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Student{}, ErrNotFound
	}
	if err != nil {
		return models.Student{}, dbErr(err)
	}
	return s, nil
}

func (db *Database) DeleteStudent(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return dbErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *Database) CreateArtist(ctx context.Context, name string, studentID int64) (models.Artist, error) {
	if _, err := db.GetStudent(ctx, studentID); err != nil {
		return models.Artist{}, err
	}
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO artists (name, student_id) VALUES (?, ?)`, name, studentID)
	if err != nil {
		return models.Artist{}, dbErr(err)
	}
	id, _ := res.LastInsertId()
	return models.Artist{ID: id, Name: name, StudentID: studentID}, nil
}

func (db *Database) ListArtistsByStudent(ctx context.Context, studentID int64) ([]models.Artist, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, student_id FROM artists WHERE student_id = ? ORDER BY id`, studentID)
	if err != nil {
		return nil, dbErr(err)
	}
	return collectArtists(rows)
}

func (db *Database) ListArtists(ctx context.Context) ([]models.Artist, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, student_id FROM artists ORDER BY id`)
	if err != nil {
		return nil, dbErr(err)
	}
	return collectArtists(rows)
}

func (db *Database) GetArtist(ctx context.Context, id int64) (models.Artist, error) {
	var a models.Artist
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, student_id FROM artists WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.StudentID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Artist{}, ErrArtistNotFound
	}
	if err != nil {
		return models.Artist{}, dbErr(err)
	}
	return a, nil
}

func (db *Database) DeleteArtist(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM artists WHERE id = ?`, id)
	if err != nil {
		return dbErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrArtistNotFound
	}
	return nil
}

func (db *Database) SongsUnderClass(ctx context.Context, classID int64) ([]models.Song, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT s.id, s.title, s.link, s.artist_id, s.file_path
		 FROM songs s
		 JOIN artists a ON s.artist_id = a.id
		 JOIN students st ON a.student_id = st.id
		 WHERE st.class_id = ?`, classID)
	if err != nil {
		return nil, dbErr(err)
	}
	return collectSongs(rows)
}

func (db *Database) SongsUnderStudent(ctx context.Context, studentID int64) ([]models.Song, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT s.id, s.title, s.link, s.artist_id, s.file_path
		 FROM songs s JOIN artists a ON s.artist_id = a.id
		 WHERE a.student_id = ?`, studentID)
	if err != nil {
		return nil, dbErr(err)
	}
	return collectSongs(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSong(row scanner) (models.Song, error) {
	var (
		song models.Song
		path sql.NullString
	)
	if err := row.Scan(&song.ID, &song.Title, &song.Link, &song.ArtistID, &path); err != nil {
		return models.Song{}, err
	}
	if path.Valid {
		song.FilePath = &path.String
	}
	return song, nil
}

func collectSongs(rows *sql.Rows) ([]models.Song, error) {
	defer rows.Close()
	var songs []models.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, dbErr(err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err)
	}
	return songs, nil
}

func collectArtists(rows *sql.Rows) ([]models.Artist, error) {
	defer rows.Close()
	var artists []models.Artist
	for rows.Next() {
		var a models.Artist
		if err := rows.Scan(&a.ID, &a.Name, &a.StudentID); err != nil {
			return nil, dbErr(err)
		}
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err)
	}
	return artists, nil
}
