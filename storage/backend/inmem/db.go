package inmembackend

import (
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/classboard/core/comment"
	"github.com/trezcool/classboard/core/submission"
	"github.com/trezcool/classboard/core/task"
	"github.com/trezcool/classboard/core/user"
)

type (
	userRow struct {
		user.User
		FullName string
		Password string
	}

	groupRow struct {
		task.Group
		TeacherID int
	}

	commentRow struct {
		comment.Comment
		SubmissionID int
	}

	// DB is the state of the in-memory backend. Safe for concurrent use.
	DB struct {
		mutex       sync.RWMutex
		pkCount     int
		users       map[int]*userRow
		groups      map[int]*groupRow
		tasks       map[int]*task.Task
		submissions map[int]*submission.Submission
		comments    []commentRow
		tokens      map[string]int
		files       map[string][]byte
		failures    map[string]error
		calls       map[string]int
		now         func() time.Time
	}
)

func NewDB() *DB {
	return &DB{
		users:       make(map[int]*userRow),
		groups:      make(map[int]*groupRow),
		tasks:       make(map[int]*task.Task),
		submissions: make(map[int]*submission.Submission),
		tokens:      make(map[string]int),
		files:       make(map[string][]byte),
		failures:    make(map[string]error),
		calls:       make(map[string]int),
		now:         time.Now,
	}
}

func (db *DB) nextPK() int {
	db.pkCount++
	return db.pkCount
}

// AddUser creates a user. groupID only matters for students.
func (db *DB) AddUser(username, password, role string, groupID int) user.User {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	usr := user.User{
		ID:       db.nextPK(),
		Username: username,
		Email:    username + "@classboard.test",
		Role:     role,
		GroupID:  groupID,
	}
	db.users[usr.ID] = &userRow{User: usr, FullName: username, Password: password}
	return usr
}

func (db *DB) AddGroup(name string, teacherID int) task.Group {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	grp := task.Group{ID: db.nextPK(), Name: name}
	db.groups[grp.ID] = &groupRow{Group: grp, TeacherID: teacherID}
	return grp
}

// AssignGroup moves a student into a group.
func (db *DB) AssignGroup(userID, groupID int) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	if row, ok := db.users[userID]; ok {
		row.GroupID = groupID
	}
}

func (db *DB) AddTask(t task.Task) task.Task {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	t.ID = db.nextPK()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = db.now().UTC()
	}
	db.tasks[t.ID] = &t
	return t
}

// AddSubmission stores a submission as is. An empty status is derived from the file.
func (db *DB) AddSubmission(sub submission.Submission) submission.Submission {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	sub.ID = db.nextPK()
	if sub.Status == "" {
		sub.Normalize()
	}
	db.submissions[sub.ID] = &sub
	return sub
}

// Submission returns a copy of a stored submission.
func (db *DB) Submission(id int) (submission.Submission, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	if sub, ok := db.submissions[id]; ok {
		return copySubmission(sub), true
	}
	return submission.Submission{}, false
}

// File returns the content of an uploaded file.
func (db *DB) File(path string) ([]byte, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	content, ok := db.files[path]
	return content, ok
}

// TokenFor issues an access token for a user without a password check.
func (db *DB) TokenFor(userID int) string {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	return db.issueToken(userID)
}

func (db *DB) issueToken(userID int) string {
	token := "tok-" + uuid.NewString()
	db.tokens[token] = userID
	return token
}

// Fail makes every call of the named operation (e.g. "GroupRanking") return err.
// A nil err clears the failure.
func (db *DB) Fail(op string, err error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	if err == nil {
		delete(db.failures, op)
		return
	}
	db.failures[op] = err
}

// Calls counts the requests that reached the named operation.
func (db *DB) Calls(op string) int {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.calls[op]
}

func (db *DB) points(studentID int) int {
	var total int
	for _, sub := range db.submissions {
		if sub.Student == studentID && sub.Grade != nil {
			total += *sub.Grade
		}
	}
	return total
}

func (db *DB) studentsOfGroups(groupIDs ...int) []*userRow {
	in := make(map[int]bool, len(groupIDs))
	for _, id := range groupIDs {
		in[id] = true
	}
	students := make([]*userRow, 0)
	for _, row := range db.users {
		if row.IsStudent() && in[row.GroupID] {
			students = append(students, row)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students
}

func (db *DB) storeFile(path string, r io.Reader) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	db.files[path] = content
	return nil
}

func copySubmission(sub *submission.Submission) submission.Submission {
	cp := *sub
	if sub.Grade != nil {
		grade := *sub.Grade
		cp.Grade = &grade
	}
	return cp
}
