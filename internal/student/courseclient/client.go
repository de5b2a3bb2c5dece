// Package courseclient calls the course directory's internal lookup API. A
// lookup is a single blocking request with no retry and no circuit breaking:
// transport failures surface to the caller as UNAVAILABLE and the caller must
// treat them as non-retryable for that request.
package courseclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/caffein/school-platform/pkg/errors"
)

// Course is the descriptor returned by the course directory.
type Course struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	AcademicYear string     `json:"academic_year"`
	Semester     string     `json:"semester"`
	MaxCapacity  int        `json:"max_capacity"`
	RoomNumber   string     `json:"room_number,omitempty"`
	Subject      *Subject   `json:"subject,omitempty"`
	Teacher      *Teacher   `json:"teacher,omitempty"`
	Schedules    []Schedule `json:"schedules,omitempty"`
}

// Subject is the nested subject descriptor.
type Subject struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

// Teacher is the nested teacher descriptor.
type Teacher struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Schedule is one meeting slot of a course.
type Schedule struct {
	DayOfWeek  string `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	RoomNumber string `json:"room_number,omitempty"`
}

// Client talks to the course directory.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// New constructs a Client with a per-request timeout.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GetCourseByID fetches one course descriptor.
func (c *Client) GetCourseByID(ctx context.Context, courseID string) (*Course, error) {
	var course Course
	path := fmt.Sprintf("/internal/courses/%s", url.PathEscape(courseID))
	if err := c.get(ctx, path, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListAvailableCourses fetches course descriptors, optionally filtered by term.
func (c *Client) ListAvailableCourses(ctx context.Context, academicYear, semester string) ([]Course, error) {
	q := url.Values{}
	if academicYear != "" {
		q.Set("academicYear", academicYear)
	}
	if semester != "" {
		q.Set("semester", semester)
	}
	path := "/internal/courses"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var courses []Course
	if err := c.get(ctx, path, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// GetSubjects fetches every subject descriptor.
func (c *Client) GetSubjects(ctx context.Context) ([]Subject, error) {
	var subjects []Subject
	if err := c.get(ctx, "/internal/subjects", &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

func (c *Client) get(ctx context.Context, path string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build course lookup request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("course lookup failed", zap.String("path", path), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "course directory unreachable")
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "course directory returned malformed response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if resp.StatusCode != http.StatusOK {
		message := "course directory request failed"
		if env.Error != nil && env.Error.Message != "" {
			message = env.Error.Message
		}
		return appErrors.Wrap(fmt.Errorf("status %d", resp.StatusCode),
			appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, message)
	}

	if err := json.Unmarshal(env.Data, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "course directory returned malformed payload")
	}
	return nil
}
