// Package records keeps the registry of users and their cloned voices.
package records

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const timestampLayout = "2006-01-02 15:04:05"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	errStoreNil     = errors.New("records store is nil")
)

// User is one registered speaker.
type User struct {
	ID        string `gorm:"primaryKey;type:varchar(64)"`
	VoiceID   string `gorm:"index:idx_voice_id;not null"`
	Name      string
	Email     string
	CreatedAt time.Time
}

// Store is a SQLite-backed user registry.
type Store struct {
	DB *gorm.DB
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&User{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Store{DB: db, db: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveUser inserts u. CreatedAt is stamped when zero.
func (s *Store) SaveUser(u User) error {
	if s == nil || s.DB == nil {
		return errStoreNil
	}
	if u.ID == "" || u.VoiceID == "" {
		return errors.New("user id and voice id are required")
	}

	var count int64
	if err := s.DB.Model(&User{}).Where("id = ?", u.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("checking user: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrUserExists, u.ID)
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	if err := s.DB.Create(&u).Error; err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// Users returns every user, oldest first.
func (s *Store) Users() ([]User, error) {
	if s == nil || s.DB == nil {
		return nil, errStoreNil
	}
	var users []User
	if err := s.DB.Order("created_at asc, id asc").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// User fetches one user by id.
func (s *Store) User(id string) (User, error) {
	if s == nil || s.DB == nil {
		return User{}, errStoreNil
	}
	var u User
	err := s.DB.Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	if err != nil {
		return User{}, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// VoiceIDs maps user id to voice id.
func (s *Store) VoiceIDs() (map[string]string, error) {
	users, err := s.Users()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(users))
	for _, u := range users {
		out[u.ID] = u.VoiceID
	}
	return out, nil
}

// UpdateUser changes name and email. Empty values leave a field unchanged.
func (s *Store) UpdateUser(id, name, email string) error {
	if s == nil || s.DB == nil {
		return errStoreNil
	}
	updates := map[string]any{}
	if name != "" {
		updates["name"] = name
	}
	if email != "" {
		updates["email"] = email
	}
	if len(updates) == 0 {
		return nil
	}

	res := s.DB.Model(&User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("updating user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return nil
}

// DeleteUser removes the user record. Files on disk are left alone.
func (s *Store) DeleteUser(id string) error {
	if s == nil || s.DB == nil {
		return errStoreNil
	}
	res := s.DB.Where("id = ?", id).Delete(&User{})
	if res.Error != nil {
		return fmt.Errorf("deleting user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return nil
}

var exportHeader = []string{"User_ID", "Voice_ID", "Name", "Email", "Timestamp"}

const userSheet = "Users"

func (s *Store) exportRows() ([][]string, error) {
	users, err := s.Users()
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(users)+1)
	rows = append(rows, exportHeader)
	for _, u := range users {
		rows = append(rows, []string{u.ID, u.VoiceID, u.Name, u.Email, u.CreatedAt.Local().Format(timestampLayout)})
	}
	return rows, nil
}

// ExportXLSX writes every user to a workbook with a
// User_ID,Voice_ID,Name,Email,Timestamp header row.
func (s *Store) ExportXLSX(w io.Writer) error {
	rows, err := s.exportRows()
	if err != nil {
		return err
	}
	return writeWorkbook(w, userSheet, rows)
}

// ExportCSV is ExportXLSX as CSV.
func (s *Store) ExportCSV(w io.Writer) error {
	rows, err := s.exportRows()
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// Export writes the format name asks for: CSV for .csv, a workbook
// otherwise.
func (s *Store) Export(w io.Writer, name string) error {
	if IsCSV(name) {
		return s.ExportCSV(w)
	}
	return s.ExportXLSX(w)
}

// ExportFile writes the export to path.
func (s *Store) ExportFile(path string) error {
	var buf bytes.Buffer
	if err := s.Export(&buf, path); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
