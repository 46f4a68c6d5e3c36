package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sepehr-mohseni/site-engagement/internal/core/domain"
	"github.com/sepehr-mohseni/site-engagement/internal/core/port"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	spamVocabulary = regexp.MustCompile(`\b(viagra|cialis|casino|lottery|winner|prize|click here|buy now)\b`)
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	scriptTag      = regexp.MustCompile(`<[^>]*script`)
	uppercaseRun   = regexp.MustCompile(`\b[A-Z]{10,}\b`)
	nonAlnum       = regexp.MustCompile(`[^a-z0-9\s]`)
)

// ValidateContactForm checks the form against the field rules and reports
// every invalid field at once. A filled honeypot short-circuits everything:
// humans never see that field.
func ValidateContactForm(form domain.ContactForm) domain.ValidationResult {
	if form.Honeypot != "" {
		return domain.ValidationResult{
			Valid:  false,
			Errors: []domain.FieldError{{Field: "honeypot", Message: "Bot detected"}},
		}
	}

	var errs []domain.FieldError

	if len(strings.TrimSpace(form.Name)) < 2 {
		errs = append(errs, domain.FieldError{Field: "name", Message: "Name must be at least 2 characters"})
	} else if len(form.Name) > 100 {
		errs = append(errs, domain.FieldError{Field: "name", Message: "Name must be less than 100 characters"})
	}

	if !emailRegex.MatchString(form.Email) {
		errs = append(errs, domain.FieldError{Field: "email", Message: "Please enter a valid email address"})
	} else if len(form.Email) > 254 {
		errs = append(errs, domain.FieldError{Field: "email", Message: "Email is too long"})
	}

	if len(strings.TrimSpace(form.Message)) < 10 {
		errs = append(errs, domain.FieldError{Field: "message", Message: "Message must be at least 10 characters"})
	} else if len(form.Message) > 5000 {
		errs = append(errs, domain.FieldError{Field: "message", Message: "Message must be less than 5000 characters"})
	}

	return domain.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// DetectSpam applies the heuristic signatures to the combined form text. It
// only ever flags; flagged submissions are still accepted and stored.
func DetectSpam(form domain.ContactForm) bool {
	raw := fmt.Sprintf("%s %s %s", form.Name, form.Email, form.Message)
	content := strings.ToLower(raw)

	if spamVocabulary.MatchString(content) {
		return true
	}
	if len(urlPattern.FindAllString(content, 3)) >= 3 {
		return true
	}
	if scriptTag.MatchString(content) {
		return true
	}
	if uppercaseRun.MatchString(raw) {
		return true
	}

	if len(content) > 0 {
		ratio := float64(len(nonAlnum.FindAllString(content, -1))) / float64(len(content))
		if ratio > 0.3 {
			return true
		}
	}

	return hasRepeatedRun(content, 6)
}

// hasRepeatedRun reports whether any character repeats at least n times in a
// row. RE2 has no backreferences, so this replaces the usual `(.)\1{5,}`.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// ContactService validates, classifies, and persists contact submissions.
type ContactService struct {
	contacts port.ContactRepository
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// NewContactService constructs a ContactService.
func NewContactService(contacts port.ContactRepository, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{
		contacts: contacts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// WithClock overrides the internal clock for deterministic tests.
func (s *ContactService) WithClock(clock func() time.Time) *ContactService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// SubmitResult reports the outcome of a contact submission.
type SubmitResult struct {
	Accepted bool
	Spam     bool
	Errors   []domain.FieldError
}

// Submit validates the form, flags spam, and stores the normalized
// submission. Validation failure is a result, not an error; only a storage
// failure surfaces as an error, and then nothing was persisted.
func (s *ContactService) Submit(ctx context.Context, form domain.ContactForm, clientAddr, userAgent string) (SubmitResult, error) {
	validation := ValidateContactForm(form)
	if !validation.Valid {
		return SubmitResult{Errors: validation.Errors}, nil
	}

	spam := DetectSpam(form)

	submission := domain.ContactSubmission{
		ID:         s.newID(),
		Name:       strings.TrimSpace(form.Name),
		Email:      strings.ToLower(strings.TrimSpace(form.Email)),
		Message:    strings.TrimSpace(form.Message),
		ClientAddr: clientAddr,
		UserAgent:  userAgent,
		IsSpam:     spam,
		CreatedAt:  s.now(),
	}

	if err := s.contacts.Insert(ctx, submission); err != nil {
		return SubmitResult{}, fmt.Errorf("store submission: %w", err)
	}

	if spam {
		s.logger.Warn("contact submission flagged as spam",
			zap.String("submission_id", submission.ID),
			zap.String("client_addr", clientAddr),
		)
	}

	return SubmitResult{Accepted: true, Spam: spam}, nil
}
