package editor

import (
	"context"
	"errors"
)

// SubmitState is the position of a session in the submit flow:
//
//	Idle -> Validating -> Rejected
//	                   -> Submitting -> Done | Failed
//
// Rejected and Failed accept another Submit.
type SubmitState int

const (
	Idle SubmitState = iota
	Validating
	Rejected
	Submitting
	Done
	Failed
)

func (st SubmitState) String() string {
	switch st {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Rejected:
		return "rejected"
	case Submitting:
		return "submitting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Submit validates the form and, if it is valid, sends the update. The error map
// is republished on every call. On success the navigator is called once with
// ListStudentsPath. On failure the form keeps everything the user entered.
func (s *Session) Submit(ctx context.Context) (SubmitState, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return s.state, ErrSessionClosed
	case s.state == Submitting:
		s.mu.Unlock()
		return Submitting, ErrSubmitInProgress
	case s.state == Done:
		s.mu.Unlock()
		return Done, ErrAlreadySubmitted
	}

	s.state = Validating
	errs := Validate(s.form.Values())
	s.form.Errors = errs
	if !errs.Valid() {
		s.state = Rejected
		s.mu.Unlock()
		return Rejected, ErrInvalidForm
	}

	payload := s.form.Payload(s.id)
	s.state = Submitting
	s.submitErr = nil
	s.mu.Unlock()

	ctx, cancel := s.scope(ctx)
	err := s.gateway.UpdateStudent(ctx, s.id, payload)
	cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Submitting, ErrSessionClosed
	}
	if err != nil {
		s.state = Failed
		s.submitErr = &SubmitError{Err: err}
		s.logger.Printf("Error updating student %s: %v", s.id, err)
		var verr *ServerValidationError
		if errors.As(err, &verr) {
			s.logger.Printf("Server field errors for student %s: %v", s.id, verr.Fields)
		}
		submitErr := s.submitErr
		s.mu.Unlock()
		return Failed, submitErr
	}
	s.state = Done
	s.mu.Unlock()

	if s.navigate != nil {
		s.navigate.Navigate(ListStudentsPath)
	}
	return Done, nil
}
