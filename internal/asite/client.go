package asite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eden-ncr/backend/internal/models"
)

const (
	disciplineField  = "CFID_DD_DISC"
	descriptionField = "CFID_RTA_DES"

	// Source dates arrive as "25-Apr-2025#<zone junk>"; everything after
	// the hash is discarded.
	sourceDateLayout = "02-Jan-2006"
)

// Client talks to the form-search API. A session id is obtained once per
// fetch via the login endpoint and carried as a cookie on every page
// request.
type Client struct {
	LoginURL  string
	SearchURL string
	Email     string
	Password  string
	PageSize  int
	Client    *http.Client
}

type loginResponse struct {
	UserProfile struct {
		SessionID string `json:"Sessionid"`
	} `json:"UserProfile"`
}

type searchCriteria struct {
	Criteria    []criterion `json:"criteria"`
	RecordStart int         `json:"recordStart"`
	RecordLimit int         `json:"recordLimit"`
}

type criterion struct {
	Field    string   `json:"field"`
	Operator int      `json:"operator"`
	Values   []string `json:"values"`
}

type searchResponse struct {
	ResponseHeader struct {
		ResultsTotal int `json:"results-total"`
	} `json:"responseHeader"`
	FormList struct {
		Form []formEntry `json:"Form"`
	} `json:"FormList"`
}

type formEntry struct {
	FormDetails formDetails `json:"FormDetails"`
}

type formDetails struct {
	FormCreationDate string `json:"FormCreationDate"`
	UpdateDate       string `json:"UpdateDate"`
	FormStatus       string `json:"FormStatus"`
	CustomFields     struct {
		CustomField []customField `json:"CustomField"`
	} `json:"CustomFields"`
}

type customField struct {
	FieldName  string `json:"FieldName"`
	FieldValue string `json:"FieldValue"`
}

func (c *Client) FetchProjectRecords(ctx context.Context, project, form string) ([]models.RawRecord, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 50 * time.Second}
	}
	if c.PageSize <= 0 {
		c.PageSize = 1000
	}

	session, err := c.login(ctx)
	if err != nil {
		return nil, err
	}

	var records []models.RawRecord
	start := 1
	total := -1
	for {
		page, pageTotal, err := c.searchPage(ctx, session, project, form, start)
		if err != nil {
			return nil, err
		}
		if total < 0 {
			total = pageTotal
		}
		records = append(records, page...)
		if start+c.PageSize-1 >= total || len(page) == 0 {
			break
		}
		start += c.PageSize
	}
	return records, nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	body := url.Values{"emailId": {c.Email}, "password": {c.Password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.LoginURL, strings.NewReader(body.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %s", ErrLoginFailed, resp.Status)
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if lr.UserProfile.SessionID == "" {
		return "", ErrNoSession
	}
	return lr.UserProfile.SessionID, nil
}

func (c *Client) searchPage(ctx context.Context, session, project, form string, start int) ([]models.RawRecord, int, error) {
	crit := searchCriteria{
		Criteria: []criterion{
			{Field: "ProjectName", Operator: 1, Values: []string{project}},
			{Field: "FormName", Operator: 1, Values: []string{form}},
		},
		RecordStart: start,
		RecordLimit: c.PageSize,
	}
	critJSON, err := json.Marshal(crit)
	if err != nil {
		return nil, 0, err
	}
	payload := "searchCriteria=" + url.QueryEscape(string(critJSON))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.SearchURL, strings.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", "ASessionID="+session)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("form search http error: %s", resp.Status)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, 0, err
	}

	records := make([]models.RawRecord, 0, len(sr.FormList.Form))
	for _, entry := range sr.FormList.Form {
		records = append(records, parseFormDetails(entry.FormDetails))
	}
	return records, sr.ResponseHeader.ResultsTotal, nil
}

func parseFormDetails(fd formDetails) models.RawRecord {
	rec := models.RawRecord{
		Status:  models.Status(fd.FormStatus),
		Created: parseSourceDate(fd.FormCreationDate),
		Closed:  parseSourceDate(fd.UpdateDate),
	}
	for _, f := range fd.CustomFields.CustomField {
		switch f.FieldName {
		case disciplineField:
			rec.Discipline = f.FieldValue
		case descriptionField:
			rec.Description = f.FieldValue
		}
	}
	if rec.Created != nil && rec.Closed != nil {
		days := int(rec.Closed.Sub(*rec.Created).Hours() / 24)
		rec.Days = &days
	}
	return rec
}

func parseSourceDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if idx := strings.Index(s, "#"); idx >= 0 {
		s = s[:idx]
	}
	t, err := time.Parse(sourceDateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
