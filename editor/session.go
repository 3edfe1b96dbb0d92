package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"
	"student-records/models"
)

// ListStudentsPath is where a successful submit navigates to.
const ListStudentsPath = "/list-students"

var (
	// ErrSessionClosed is returned once Close has been called.
	ErrSessionClosed = errors.New("edit session closed")
	// ErrInvalidForm is returned by Submit when validation rejects the form.
	ErrInvalidForm = errors.New("form has validation errors")
	// ErrSubmitInProgress is returned by Submit while an update is in flight.
	ErrSubmitInProgress = errors.New("submit already in progress")
	// ErrAlreadySubmitted is returned by Submit after a successful update.
	ErrAlreadySubmitted = errors.New("student already updated")
)

// SubmitError wraps a failed update call.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string { return "failed to update student: " + e.Err.Error() }

func (e *SubmitError) Unwrap() error { return e.Err }

// Navigator moves the user away from the edit view.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the operator log for fetch and submit failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithWarnings sets the handler for user-facing warnings such as duplicate courses.
func WithWarnings(fn func(msg string)) Option {
	return func(s *Session) { s.warn = fn }
}

// Session is one edit of one student. It is safe for concurrent use: gateway
// completions are applied under the session lock, and anything that completes
// after Close is dropped.
type Session struct {
	id       string
	gateway  Gateway
	navigate Navigator
	logger   *log.Logger
	warn     func(msg string)

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	form      Form
	state     SubmitState
	submitErr error
	closed    bool
}

// NewSession starts an edit session for the student with the given id.
func NewSession(id string, gateway Gateway, nav Navigator, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       id,
		gateway:  gateway,
		navigate: nav,
		logger:   log.Default(),
		ctx:      ctx,
		cancel:   cancel,
		form:     Form{Errors: ErrorMap{}},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.warn == nil {
		s.warn = func(msg string) { s.logger.Printf("warning: %s", msg) }
	}
	return s
}

// ID returns the id of the student being edited.
func (s *Session) ID() string { return s.id }

// Load fetches the student and both catalogues concurrently and applies each
// result as it arrives. If any read fails, the returned error is the session's
// *FetchError and the fields that read would have filled keep their defaults.
func (s *Session) Load(ctx context.Context) error {
	ctx, cancel := s.scope(ctx)
	defer cancel()

	if !s.apply(func(f *Form) { f.FetchErr = nil }) {
		return ErrSessionClosed
	}

	var g errgroup.Group
	g.Go(func() error {
		student, err := s.gateway.FetchStudent(ctx, s.id)
		if err != nil {
			return s.fetchFailed(SourceStudent, err)
		}
		s.apply(func(f *Form) {
			f.Name = student.Name
			f.ContactNumber = student.ContactNumber
			f.ClassID = student.ClassId
			f.Courses = SelectionFromMarked(student.MarkedCourses)
		})
		return nil
	})
	g.Go(func() error {
		courses, err := s.gateway.FetchCourseCatalog(ctx)
		if err != nil {
			return s.fetchFailed(SourceCourses, err)
		}
		s.apply(func(f *Form) { f.CourseCatalog = courses })
		return nil
	})
	g.Go(func() error {
		classes, err := s.gateway.FetchClassCatalog(ctx)
		if err != nil {
			return s.fetchFailed(SourceClasses, err)
		}
		s.apply(func(f *Form) { f.ClassCatalog = classes })
		return nil
	})

	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if err != nil {
		if s.form.FetchErr == nil {
			return err
		}
		return s.form.FetchErr
	}
	return nil
}

func (s *Session) fetchFailed(src Source, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.form.FetchErr == nil {
		s.form.FetchErr = &FetchError{}
	}
	s.form.FetchErr.add(src, err)
	s.logger.Printf("Error fetching %s for student %s: %v", src, s.id, err)
	return err
}

// apply mutates the form unless the session has been closed.
func (s *Session) apply(fn func(f *Form)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	fn(&s.form)
	return true
}

// scope derives a context that is also cancelled when the session closes.
func (s *Session) scope(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Close ends the session. In-flight calls are cancelled and their results dropped.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

// --- Field setters ---

func (s *Session) SetName(name string) {
	s.apply(func(f *Form) { f.Name = name })
}

func (s *Session) SetContactNumber(number string) {
	s.apply(func(f *Form) { f.ContactNumber = number })
}

func (s *Session) SetClass(classID string) {
	s.apply(func(f *Form) { f.ClassID = classID })
}

// ChooseCourse records the option selected in the course picker.
func (s *Session) ChooseCourse(courseID string) {
	s.apply(func(f *Form) { f.PendingCourse = courseID })
}

// AddChosenCourse adds the picker's current option, labelled from the catalogue.
// Nothing happens when no option is chosen.
func (s *Session) AddChosenCourse() error {
	s.mu.Lock()
	id := s.form.PendingCourse
	label := s.form.CourseLabel(id)
	s.mu.Unlock()
	if id == "" {
		return nil
	}
	return s.AddCourse(id, label)
}

// AddCourse appends a course to the selection. A duplicate id is rejected with
// ErrDuplicateCourse and a warning; the form is left as it was.
func (s *Session) AddCourse(courseID, label string) error {
	var err error
	if !s.apply(func(f *Form) { err = f.Courses.Add(courseID, label) }) {
		return ErrSessionClosed
	}
	if errors.Is(err, ErrDuplicateCourse) {
		s.warn(models.MsgCourseAdded)
	}
	return err
}

// RemoveCourse drops a course from the selection; unknown ids are ignored.
func (s *Session) RemoveCourse(courseID string) {
	s.apply(func(f *Form) { f.Courses.Remove(courseID) })
}

// Reset clears every editable field and the error map.
func (s *Session) Reset() {
	s.apply(func(f *Form) { f.Reset() })
}

// --- Readers ---

// Form returns a copy of the current form state.
func (s *Session) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.clone()
}

// FetchErr returns the collapsed initial-load failure, or nil.
func (s *Session) FetchErr() *FetchError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.clone().FetchErr
}

// State returns where the submission state machine currently is.
func (s *Session) State() SubmitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SubmitErr returns the error of the last failed submit, or nil.
func (s *Session) SubmitErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitErr
}

func (s *Session) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("edit session %s (%s)", s.id, s.state)
}
