package store

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/imsolutions/chatdesk/pkg/logging"
)

// createFields is the CSV header written by the schedule path.
var createFields = []string{"id", "title", "time", "notes", "status", "user_name", "user_email", "user_phone", "user_company"}

// cancelFields is the header written when the cancel path rewrites the file.
// It drops user_company. The two paths have diverged since the system
// shipped; unifying them changes what downstream imports see, so the
// divergence is kept until the sheet consumers confirm which set is right.
var cancelFields = []string{"id", "title", "time", "notes", "status", "user_name", "user_email", "user_phone"}

// FileStore is the local durability backstop: appointments in a CSV file,
// form-captured users in a JSON-lines file. A per-file mutex serializes the
// read-modify-write cycles that the original left unguarded.
type FileStore struct {
	appointmentsPath string
	usersPath        string
	logger           *logging.Logger

	apptMu  sync.Mutex
	usersMu sync.Mutex
}

// NewFileStore creates a file store rooted at dataDir.
func NewFileStore(dataDir string, logger *logging.Logger) *FileStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &FileStore{
		appointmentsPath: filepath.Join(dataDir, "appointments.csv"),
		usersPath:        filepath.Join(dataDir, "users_data.json"),
		logger:           logger,
	}
}

// AppendAppointment appends one row, writing the header on first use.
func (f *FileStore) AppendAppointment(appt *Appointment) error {
	f.apptMu.Lock()
	defer f.apptMu.Unlock()

	_, statErr := os.Stat(f.appointmentsPath)
	newFile := errors.Is(statErr, os.ErrNotExist)

	file, err := os.OpenFile(f.appointmentsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: open appointments csv: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if newFile {
		if err := w.Write(createFields); err != nil {
			return fmt.Errorf("store: write csv header: %w", err)
		}
	}
	u := appt.User
	if err := w.Write([]string{
		appt.ID, appt.Title, appt.Time, appt.Notes, appt.Status,
		u.Name, u.Email, u.Phone, u.Company,
	}); err != nil {
		return fmt.Errorf("store: write csv row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// ListAppointments reads every row. A missing file yields an empty list.
func (f *FileStore) ListAppointments() ([]Appointment, error) {
	f.apptMu.Lock()
	defer f.apptMu.Unlock()
	return f.readAppointmentsLocked()
}

func (f *FileStore) readAppointmentsLocked() ([]Appointment, error) {
	file, err := os.Open(f.appointmentsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Appointment{}, nil
		}
		return nil, fmt.Errorf("store: open appointments csv: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []Appointment{}, nil
		}
		return nil, fmt.Errorf("store: read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var appts []Appointment
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("store: read csv row: %w", err)
		}
		appts = append(appts, Appointment{
			ID:     field(row, "id"),
			Title:  field(row, "title"),
			Time:   field(row, "time"),
			Notes:  field(row, "notes"),
			Status: field(row, "status"),
			User: UserInfo{
				Name:    field(row, "user_name"),
				Email:   field(row, "user_email"),
				Phone:   field(row, "user_phone"),
				Company: field(row, "user_company"),
			},
		})
	}
	if appts == nil {
		appts = []Appointment{}
	}
	return appts, nil
}

// MarkAppointmentCancelled flips the row's status and rewrites the whole
// file (there is no update-in-place for CSV). Returns the updated row and
// whether the id was found.
func (f *FileStore) MarkAppointmentCancelled(id string) (*Appointment, bool, error) {
	f.apptMu.Lock()
	defer f.apptMu.Unlock()

	appts, err := f.readAppointmentsLocked()
	if err != nil {
		return nil, false, err
	}
	if len(appts) == 0 {
		return nil, false, nil
	}

	var cancelled *Appointment
	for i := range appts {
		if appts[i].ID == id {
			appts[i].Status = StatusCancelled
			cancelled = &appts[i]
			break
		}
	}

	file, err := os.Create(f.appointmentsPath)
	if err != nil {
		return nil, false, fmt.Errorf("store: rewrite appointments csv: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(cancelFields); err != nil {
		return nil, false, fmt.Errorf("store: write csv header: %w", err)
	}
	for _, a := range appts {
		u := a.User
		if err := w.Write([]string{
			a.ID, a.Title, a.Time, a.Notes, a.Status,
			u.Name, u.Email, u.Phone,
		}); err != nil {
			return nil, false, fmt.Errorf("store: write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, false, err
	}
	return cancelled, cancelled != nil, nil
}

// AppendFormUser appends one JSON object per line.
func (f *FileStore) AppendFormUser(user *FormUser) error {
	f.usersMu.Lock()
	defer f.usersMu.Unlock()

	file, err := os.OpenFile(f.usersPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: open users file: %w", err)
	}
	defer file.Close()

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("store: marshal user: %w", err)
	}
	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("store: append user: %w", err)
	}
	return nil
}

// ListFormUsers reads every line, skipping blanks and undecodable entries.
func (f *FileStore) ListFormUsers() ([]FormUser, error) {
	f.usersMu.Lock()
	defer f.usersMu.Unlock()

	file, err := os.Open(f.usersPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []FormUser{}, nil
		}
		return nil, fmt.Errorf("store: open users file: %w", err)
	}
	defer file.Close()

	users := []FormUser{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var u FormUser
		if err := json.Unmarshal(line, &u); err != nil {
			f.logger.Warn("skipping undecodable user line", "error", err)
			continue
		}
		users = append(users, u)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("store: scan users file: %w", err)
	}
	return users, nil
}
