package akinator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	xlog "github.com/eolso/akinator/internal/log"
)

const (
	baseURLFmt       = `https://%s.akinator.com`
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"
	maxBodyBytes     = 4 << 20
)

const (
	endpointGame    = "game"
	endpointAnswer  = "answer"
	endpointBack    = "back"
	endpointExclude = "exclude"
)

// errCallerCanceled marks a request abandoned by its caller. The circuit
// breaker ignores it.
var errCallerCanceled = errors.New("request canceled by caller")

// flexString decodes a JSON string or number into its textual form. The
// service is inconsistent about which one it sends for numeric fields.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n)
	return nil
}

// stepPayload covers both shapes the JSON endpoints answer with: the next
// question, or a proposition of what the player is thinking of.
type stepPayload struct {
	Completion  string     `json:"completion"`
	Akitude     string     `json:"akitude"`
	Step        flexString `json:"step"`
	Progression flexString `json:"progression"`
	QuestionID  flexString `json:"question_id"`
	Question    string     `json:"question"`

	IDProposition          flexString  `json:"id_proposition"`
	IDBaseProposition      flexString  `json:"id_base_proposition"`
	ValideContrainte       *flexString `json:"valide_contrainte"`
	NameProposition        string      `json:"name_proposition"`
	DescriptionProposition string      `json:"description_proposition"`
	Photo                  string      `json:"photo"`
	Pseudo                 string      `json:"pseudo"`
	FlagPhoto              flexString  `json:"flag_photo"`
}

type stepResponse struct {
	stepPayload
	Data *stepPayload `json:"data"`
}

// payload returns the top level fields unless the service nested them under
// "data".
func (r *stepResponse) payload() stepPayload {
	top := r.stepPayload
	if top.Question != "" || top.isProposition() || r.Data == nil {
		return top
	}

	nested := *r.Data
	if nested.Completion == "" {
		nested.Completion = top.Completion
	}
	return nested
}

func (p stepPayload) isProposition() bool {
	return (p.ValideContrainte != nil && *p.ValideContrainte != "") || p.NameProposition != ""
}

func (p stepPayload) guess() *Guess {
	return &Guess{
		ID:          string(p.IDProposition),
		Name:        p.NameProposition,
		Description: p.DescriptionProposition,
		Photo:       p.Photo,
		Pseudo:      p.Pseudo,
	}
}

func (c *Client) endpointURL(lang Language, endpoint string) string {
	if c.baseURL != "" {
		return c.baseURL + "/" + endpoint
	}
	return fmt.Sprintf(baseURLFmt, lang) + "/" + endpoint
}

// post sends a form to endpoint and returns the body of a 2xx response.
func (c *Client) post(ctx context.Context, lang Language, endpoint string, form url.Values) ([]byte, error) {
	logger := xlog.WithContext(ctx, c.logger).With().Str(xlog.FieldEndpoint, endpoint).Logger()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			observeRequest(endpoint, outcomeCanceled, 0)
			return nil, &APIError{Sentinel: ErrUpstreamUnavailable, Op: endpoint, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(lang, endpoint), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	if endpoint != endpointGame {
		req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}

	var (
		body     []byte
		status   int
		canceled error
	)
	start := time.Now()

	exec := func() error {
		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				canceled = err
				return errCallerCanceled
			}
			return &APIError{Sentinel: ErrUpstreamUnavailable, Op: endpoint, Err: err}
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return &APIError{Sentinel: ErrUpstreamUnavailable, Op: endpoint, Status: status, Err: err}
		}
		if status >= http.StatusInternalServerError {
			return &APIError{Sentinel: ErrUpstreamStatus, Op: endpoint, Status: status}
		}
		return nil
	}

	if c.breaker != nil {
		err = c.breaker.Execute(exec)
	} else {
		err = exec()
	}
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, ErrCircuitOpen):
		observeRequest(endpoint, outcomeCircuitOpen, 0)
		logger.Warn().Msg("upstream circuit open, request not sent")
		return nil, &APIError{Sentinel: ErrCircuitOpen, Op: endpoint}
	case canceled != nil:
		observeRequest(endpoint, outcomeCanceled, elapsed)
		return nil, &APIError{Sentinel: ErrUpstreamUnavailable, Op: endpoint, Err: canceled}
	case err != nil:
		observeRequest(endpoint, outcomeError, elapsed)
		logger.Warn().Err(err).Dur(xlog.FieldDuration, elapsed).Msg("upstream request failed")
		return nil, err
	case status < 200 || status > 299:
		observeRequest(endpoint, outcomeError, elapsed)
		logger.Warn().Int(xlog.FieldStatus, status).Dur(xlog.FieldDuration, elapsed).Msg("upstream returned unexpected status")
		return nil, &APIError{Sentinel: ErrUpstreamStatus, Op: endpoint, Status: status}
	}

	observeRequest(endpoint, outcomeOK, elapsed)
	logger.Debug().Int(xlog.FieldStatus, status).Dur(xlog.FieldDuration, elapsed).Msg("upstream request")

	return body, nil
}

// postStep posts to one of the JSON endpoints and decodes the step payload.
func (c *Client) postStep(ctx context.Context, lang Language, endpoint string, form url.Values) (stepPayload, error) {
	body, err := c.post(ctx, lang, endpoint, form)
	if err != nil {
		return stepPayload{}, err
	}

	var resp stepResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return stepPayload{}, &APIError{Sentinel: ErrBadResponse, Op: endpoint, Err: err}
	}

	p := resp.payload()
	if err := completionError(endpoint, p.Completion); err != nil {
		return stepPayload{}, err
	}
	return p, nil
}

func parseProgress(s string) float64 {
	p, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return p
}
