package records

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadUsers(t *testing.T) {
	s := setupStore(t)
	first := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.SaveUser(User{ID: "jane_00000001", VoiceID: "v1", Name: "Jane", Email: "jane@example.com", CreatedAt: first}))
	require.NoError(t, s.SaveUser(User{ID: "bob_00000002", VoiceID: "v2", Name: "Bob", CreatedAt: first.Add(time.Hour)}))

	users, err := s.Users()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "jane_00000001", users[0].ID)
	assert.Equal(t, "bob_00000002", users[1].ID)

	ids, err := s.VoiceIDs()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"jane_00000001": "v1", "bob_00000002": "v2"}, ids)

	u, err := s.User("bob_00000002")
	require.NoError(t, err)
	assert.Equal(t, "Bob", u.Name)
}

func TestSaveUserRejectsDuplicatesAndMissingFields(t *testing.T) {
	s := setupStore(t)
	require.NoError(t, s.SaveUser(User{ID: "a_1", VoiceID: "v"}))

	assert.ErrorIs(t, s.SaveUser(User{ID: "a_1", VoiceID: "other"}), ErrUserExists)
	assert.Error(t, s.SaveUser(User{ID: "b_2"}))
	assert.Error(t, s.SaveUser(User{VoiceID: "v"}))
}

func TestUpdateAndDeleteUser(t *testing.T) {
	s := setupStore(t)
	require.NoError(t, s.SaveUser(User{ID: "a_1", VoiceID: "v", Name: "Old", Email: "old@example.com"}))

	require.NoError(t, s.UpdateUser("a_1", "New", ""))
	u, err := s.User("a_1")
	require.NoError(t, err)
	assert.Equal(t, "New", u.Name)
	assert.Equal(t, "old@example.com", u.Email)

	assert.ErrorIs(t, s.UpdateUser("missing", "x", ""), ErrUserNotFound)

	require.NoError(t, s.DeleteUser("a_1"))
	_, err = s.User("a_1")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, s.DeleteUser("a_1"), ErrUserNotFound)
}

func TestExportCSV(t *testing.T) {
	s := setupStore(t)
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)
	require.NoError(t, s.SaveUser(User{ID: "jane_1", VoiceID: "v1", Name: "Jane, Jr.", CreatedAt: at}))

	var buf bytes.Buffer
	require.NoError(t, s.ExportCSV(&buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"User_ID", "Voice_ID", "Name", "Email", "Timestamp"}, rows[0])
	assert.Equal(t, []string{"jane_1", "v1", "Jane, Jr.", "", "2024-05-06 07:08:09"}, rows[1])
}

func TestNilStore(t *testing.T) {
	var s *Store
	_, err := s.Users()
	assert.Error(t, err)
	assert.NoError(t, s.Close())
}

func TestNewUserID(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z0-9]+_[0-9a-f]{8}$`)

	tests := []struct {
		name     string
		wantSlug string
	}{
		{"Jane Doe", "janedoe"},
		{"José Núñez", "josenunez"},
		{"R2-D2!", "r2d2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewUserID(tt.name)
			require.NoError(t, err)
			assert.Regexp(t, pattern, id)
			assert.True(t, strings.HasPrefix(id, tt.wantSlug+"_"), id)
		})
	}

	_, err := NewUserID("!!!")
	assert.ErrorIs(t, err, ErrEmptyName)

	a, _ := NewUserID("x")
	b, _ := NewUserID("x")
	assert.NotEqual(t, a, b)
}

func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestLoadTexts(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]any
		want    map[string]string
		wantErr error
	}{
		{
			name: "template order",
			rows: [][]any{
				{"Text", "File_name"},
				{"Hello there", "greeting"},
				{nil, "empty"},
				{"Bye", nil},
				{"Quoted, text", "quoted"},
			},
			want: map[string]string{"greeting": "Hello there", "quoted": "Quoted, text"},
		},
		{
			name: "swapped columns and blank row",
			rows: [][]any{
				{"file_name", "Notes", "text"},
				{"intro", "ignored", "Welcome"},
				{},
				{"intro", "", "Welcome back"},
			},
			want: map[string]string{"intro": "Welcome back"},
		},
		{name: "wrong header", rows: [][]any{{"a", "b"}, {1, 2}}, wantErr: ErrBadTemplate},
		{name: "empty sheet", rows: nil, wantErr: ErrBadTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			texts, err := LoadTexts(workbook(t, tt.rows...))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, texts)
		})
	}
}

func TestLoadTextsRejectsNonWorkbook(t *testing.T) {
	_, err := LoadTexts(strings.NewReader("Text,File_name\nHi,hi\n"))
	assert.ErrorContains(t, err, "reading workbook")
}

func TestLoadTextsCSV(t *testing.T) {
	in := "\ufeffText,File_name\nHello there,greeting\n,empty\nBye,\n\"Quoted, text\",quoted\n"
	texts, err := LoadTextsCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"greeting": "Hello there", "quoted": "Quoted, text"}, texts)

	_, err = LoadTextsCSV(strings.NewReader("a,b\n1,2\n"))
	assert.ErrorIs(t, err, ErrBadTemplate)

	_, err = LoadTextsCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrBadTemplate)
}

func TestTextTemplateFiles(t *testing.T) {
	for _, name := range []string{"Text_Template.xlsx", "Text_Template.csv"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteTextTemplateFile(path))

			texts, err := LoadTextsFile(path)
			require.NoError(t, err)
			assert.Equal(t, "Hello, how are you?", texts["greeting1"])
			assert.Len(t, texts, 2)
		})
	}
}

func TestExportXLSX(t *testing.T) {
	s := setupStore(t)
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)
	require.NoError(t, s.SaveUser(User{ID: "jane_1", VoiceID: "v1", Name: "Jane, Jr.", Email: "jane@example.com", CreatedAt: at}))

	var buf bytes.Buffer
	require.NoError(t, s.ExportXLSX(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Users"}, f.GetSheetList())

	rows, err := f.GetRows("Users")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"User_ID", "Voice_ID", "Name", "Email", "Timestamp"}, rows[0])
	assert.Equal(t, []string{"jane_1", "v1", "Jane, Jr.", "jane@example.com", "2024-05-06 07:08:09"}, rows[1])
}

func TestExportFile(t *testing.T) {
	s := setupStore(t)
	require.NoError(t, s.SaveUser(User{ID: "a_1", VoiceID: "v", Name: "A"}))

	dir := t.TempDir()
	xlsx := filepath.Join(dir, "out", "User_Data.xlsx")
	require.NoError(t, s.ExportFile(xlsx))
	rows, err := readWorkbookFile(t, xlsx)
	require.NoError(t, err)
	assert.Equal(t, "a_1", rows[1][0])

	csvPath := filepath.Join(dir, "User_Data.csv")
	require.NoError(t, s.ExportFile(csvPath))
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "User_ID,Voice_ID,Name,Email,Timestamp\n"), string(data))
}

func readWorkbookFile(t *testing.T, path string) ([][]string, error) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	return readWorkbook(f)
}
