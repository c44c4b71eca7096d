package igot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/errors"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/i18n"
	"github.com/KB-iGOT/kb-support-agent-service-sub000/pkg/types"
)

const DEFAULT_TIMEOUT = 15 * time.Second

type Config struct {
	Endpoint string `toml:"endpoint"`
	APIKey   string `toml:"api_key"`
	Timeout  int    `toml:"timeout_second"`
}

// Client talks to the iGOT platform APIs: user read, profile update,
// OTP, enrollments, certificates and tickets.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := DEFAULT_TIMEOUT
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// envelope is the platform's standard response wrapper.
type envelope struct {
	ResponseCode string         `json:"responseCode"`
	Params       map[string]any `json:"params"`
	Result       map[string]any `json:"result"`
}

func (c *Client) call(ctx context.Context, method, path string, body any) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, errors.New("igot.call.Marshal", i18n.ERROR_INTERNAL, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return nil, errors.New("igot.call.NewRequest", i18n.ERROR_INTERNAL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("igot.call.%s", path), i18n.ERROR_SERVICE_UNAVAILABLE, err).
			Code(http.StatusServiceUnavailable).Kind(errors.KindExternalService)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("igot.call.%s.ReadAll", path), i18n.ERROR_SERVICE_UNAVAILABLE, err).
			Code(http.StatusServiceUnavailable).Kind(errors.KindExternalService)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.New(fmt.Sprintf("igot.call.%s", path), i18n.ERROR_SERVICE_UNAVAILABLE,
			fmt.Errorf("status %d: %s", resp.StatusCode, raw)).
			Code(http.StatusServiceUnavailable).Kind(errors.KindExternalService)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.New(fmt.Sprintf("igot.call.%s.Unmarshal", path), i18n.ERROR_SERVICE_UNAVAILABLE, err).
			Code(http.StatusServiceUnavailable).Kind(errors.KindExternalService)
	}
	if env.ResponseCode != "OK" && env.ResponseCode != "" {
		return nil, errors.New(fmt.Sprintf("igot.call.%s", path), i18n.ERROR_SERVICE_UNAVAILABLE,
			fmt.Errorf("responseCode %s", env.ResponseCode)).
			Code(http.StatusServiceUnavailable).Kind(errors.KindExternalService)
	}
	return env.Result, nil
}

// FetchUserDetails reads the profile, enrollments and karma points for
// one user and returns the cleaned cache entry. CredentialHash is left
// for the caller to fill from the request context.
func (c *Client) FetchUserDetails(ctx context.Context, userID string) (*types.CacheEntry, error) {
	result, err := c.call(ctx, http.MethodGet, "/api/user/v2/read/"+userID, nil)
	if err != nil {
		return nil, errors.Trace("igot.FetchUserDetails", err)
	}
	profile, _ := result["response"].(map[string]any)
	if profile == nil {
		return nil, errors.New("igot.FetchUserDetails.EmptyProfile", i18n.ERROR_PROFILE_FETCH, nil).
			Code(http.StatusServiceUnavailable).Kind(errors.KindExternalService)
	}

	entry := &types.CacheEntry{
		UserID:    userID,
		Profile:   cleanProfile(profile),
		FetchedAt: time.Now().Unix(),
	}

	enrollments, err := c.fetchEnrollments(ctx, userID)
	if err != nil {
		return nil, errors.Trace("igot.FetchUserDetails", err)
	}
	entry.Courses = CleanEnrollments(enrollments, "Course")
	entry.Events = CleanEnrollments(enrollments, "Event")
	entry.Enrollment = SummarizeEnrollments(entry.Courses, entry.Events)

	if karma, err := c.fetchKarmaPoints(ctx, userID); err == nil {
		entry.Enrollment.KarmaPoints = karma
	}

	return entry, nil
}

func (c *Client) fetchEnrollments(ctx context.Context, userID string) ([]map[string]any, error) {
	result, err := c.call(ctx, http.MethodGet, "/api/course/v1/enrollment/list/"+userID, nil)
	if err != nil {
		return nil, err
	}
	rawList, _ := result["courses"].([]any)
	list := make([]map[string]any, 0, len(rawList))
	for _, item := range rawList {
		if m, ok := item.(map[string]any); ok {
			list = append(list, m)
		}
	}
	return list, nil
}

func (c *Client) fetchKarmaPoints(ctx context.Context, userID string) (int, error) {
	result, err := c.call(ctx, http.MethodGet, "/api/karmapoints/v1/read/"+userID, nil)
	if err != nil {
		return 0, err
	}
	if points, ok := result["points"].(float64); ok {
		return int(points), nil
	}
	return 0, nil
}

// UpdateProfile patches the given fields on the user's profile record.
func (c *Client) UpdateProfile(ctx context.Context, userID string, fields map[string]any) error {
	body := map[string]any{
		"request": map[string]any{
			"userId": userID,
		},
	}
	req := body["request"].(map[string]any)
	for k, v := range fields {
		req[k] = v
	}
	if _, err := c.call(ctx, http.MethodPatch, "/api/user/v1/update", body); err != nil {
		return errors.Trace("igot.UpdateProfile", err)
	}
	return nil
}

// GenerateOTP sends a code to the given destination. mode is "phone" or
// "email".
func (c *Client) GenerateOTP(ctx context.Context, mode, destination string) error {
	body := map[string]any{
		"request": map[string]any{
			"type": mode,
			"key":  destination,
		},
	}
	if _, err := c.call(ctx, http.MethodPost, "/api/otp/v1/generate", body); err != nil {
		return errors.Trace("igot.GenerateOTP", err)
	}
	return nil
}

// VerifyOTP checks a code against the destination it was sent to. A
// wrong code is (false, nil); errors mean the check itself failed.
func (c *Client) VerifyOTP(ctx context.Context, mode, destination, code string) (bool, error) {
	body := map[string]any{
		"request": map[string]any{
			"type": mode,
			"key":  destination,
			"otp":  code,
		},
	}
	result, err := c.call(ctx, http.MethodPost, "/api/otp/v1/verify", body)
	if err != nil {
		return false, errors.Trace("igot.VerifyOTP", err)
	}
	if verified, ok := result["response"].(string); ok {
		return verified == "SUCCESS", nil
	}
	return false, nil
}

// IssueCertificate asks the platform to (re)issue the certificate for a
// completed course.
func (c *Client) IssueCertificate(ctx context.Context, userID, courseID, batchID string) error {
	body := map[string]any{
		"request": map[string]any{
			"userIds":  []string{userID},
			"courseId": courseID,
			"batchId":  batchID,
		},
	}
	if _, err := c.call(ctx, http.MethodPost, "/api/course/batch/cert/v1/issue", body); err != nil {
		return errors.Trace("igot.IssueCertificate", err)
	}
	return nil
}

// CreateTicket raises a support ticket and returns its identifier.
func (c *Client) CreateTicket(ctx context.Context, userID, subject, description string) (string, error) {
	body := map[string]any{
		"request": map[string]any{
			"userId":      userID,
			"subject":     subject,
			"description": description,
		},
	}
	result, err := c.call(ctx, http.MethodPost, "/api/ticket/v1/create", body)
	if err != nil {
		return "", errors.Trace("igot.CreateTicket", err)
	}
	if id, ok := result["ticketId"].(string); ok {
		return id, nil
	}
	return "", nil
}

// cleanProfile keeps the fields conversations actually need and drops
// the platform's internal bookkeeping.
func cleanProfile(raw map[string]any) map[string]any {
	keep := []string{
		"firstName", "lastName", "userName", "email", "mobile",
		"department", "channel", "designation", "roles", "status",
	}
	out := make(map[string]any, len(keep))
	for _, k := range keep {
		if v, ok := raw[k]; ok {
			out[k] = v
		}
	}
	if prof, ok := raw["profileDetails"].(map[string]any); ok {
		if personal, ok := prof["personalDetails"].(map[string]any); ok {
			for _, k := range []string{"firstname", "primaryEmail", "mobile"} {
				if v, ok := personal[k]; ok && out[mapPersonalKey(k)] == nil {
					out[mapPersonalKey(k)] = v
				}
			}
		}
		if emp, ok := prof["employmentDetails"].(map[string]any); ok {
			if v, ok := emp["departmentName"]; ok && out["department"] == nil {
				out["department"] = v
			}
		}
	}
	return out
}

func mapPersonalKey(k string) string {
	switch k {
	case "firstname":
		return "firstName"
	case "primaryEmail":
		return "email"
	default:
		return k
	}
}
