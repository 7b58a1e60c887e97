package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/coproject/backend/config"
	"github.com/coproject/backend/errs"
	"github.com/coproject/backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendEmailRequest represents the request payload for Resend API
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// ResendEmailResponse represents the response from Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// ResendErrorResponse represents an error response from Resend API
type ResendErrorResponse struct {
	Message string `json:"message"`
}

type MembershipChange int

const (
	MembershipJoined MembershipChange = iota
	MembershipLeft
)

// MembershipEvent describes a student joining or leaving a project
type MembershipEvent struct {
	Change  MembershipChange
	Project models.ProjectDetails
	Student models.UserDetails
}

// Notifier e-mails supervisors and students about membership changes through Resend.
// Without RESEND_API_KEY every call is a no-op.
type Notifier struct {
	apiKey   string
	from     string
	endpoint string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

func NewNotifier(c map[string]string) *Notifier {
	return &Notifier{
		apiKey:   config.GetString(c, "RESEND_API_KEY", ""),
		from:     config.GetString(c, "RESEND_FROM_EMAIL", "CoProject <noreply@coproject.dk>"),
		endpoint: config.GetString(c, "RESEND_API_URL", resendEndpoint),
		baseURL:  config.GetString(c, "BASE_URL", ""),
		client:   &http.Client{Timeout: config.GetDuration(c, "RESEND_TIMEOUT", 10*time.Second)},
		logger:   log.With().Str("service", "Notifier").Logger(),
	}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.apiKey != ""
}

// MembershipChanged tells the supervisor and the student about the change, concurrently
func (n *Notifier) MembershipChanged(ctx context.Context, event MembershipEvent) error {
	if !n.Enabled() {
		return nil
	}

	project := html.EscapeString(event.Project.Name)
	student := html.EscapeString(event.Student.Name)

	var studentSubject, studentBody, supervisorSubject, supervisorBody string
	switch event.Change {
	case MembershipJoined:
		studentSubject = fmt.Sprintf("You joined %s", event.Project.Name)
		studentBody = fmt.Sprintf("<p>You are now a member of <b>%s</b>.</p>", project)
		supervisorSubject = fmt.Sprintf("%s joined %s", event.Student.Name, event.Project.Name)
		supervisorBody = fmt.Sprintf("<p>%s joined your project <b>%s</b>.</p>", student, project)
	case MembershipLeft:
		studentSubject = fmt.Sprintf("You left %s", event.Project.Name)
		studentBody = fmt.Sprintf("<p>You are no longer a member of <b>%s</b>.</p>", project)
		supervisorSubject = fmt.Sprintf("%s left %s", event.Student.Name, event.Project.Name)
		supervisorBody = fmt.Sprintf("<p>%s left your project <b>%s</b>.</p>", student, project)
	default:
		return fmt.Errorf("unknown membership change %d", event.Change)
	}

	link := linkParagraph(html.EscapeString(ProjectURL(n.baseURL, event.Project.ID)))
	studentBody += link
	supervisorBody += link

	g, gctx := errgroup.WithContext(ctx)
	if event.Student.Email != "" {
		g.Go(func() error {
			return n.SendEmail(gctx, studentSubject, studentBody, []string{event.Student.Email})
		})
	}
	if event.Project.Supervisor != nil && event.Project.Supervisor.Email != "" {
		to := event.Project.Supervisor.Email
		g.Go(func() error {
			return n.SendEmail(gctx, supervisorSubject, supervisorBody, []string{to})
		})
	}
	return g.Wait()
}

// SendEmail sends one HTML e-mail through the Resend API
func (n *Notifier) SendEmail(ctx context.Context, subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}

	payload := ResendEmailRequest{
		From:    n.from,
		To:      recipients,
		Subject: subject,
		Html:    body,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create Resend API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errs.NewServiceUnreachableError("resend", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Resend API response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return errs.NewRateLimitError("resend", time.Duration(retryAfter)*time.Second)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return errs.NewInvalidAPIKeyError("resend")
	case resp.StatusCode != http.StatusOK:
		var errorResp ResendErrorResponse
		if err := json.Unmarshal(bodyBytes, &errorResp); err == nil && errorResp.Message != "" {
			return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, errorResp.Message)
		}
		return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var emailResponse ResendEmailResponse
	if err := json.Unmarshal(bodyBytes, &emailResponse); err != nil {
		n.logger.Warn().Err(err).Msg("failed to parse Resend email response, but email was sent")
	} else {
		n.logger.Info().Str("emailId", emailResponse.ID).Strs("to", recipients).Msg("sent email via Resend")
	}
	return nil
}
