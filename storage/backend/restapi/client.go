// Package restapi is the HTTP client of the classroom REST backend.
// It is the only place that issues backend requests.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/session"
	"github.com/trezcool/classboard/services/metrics"
)

// maxErrorBody caps the body excerpt kept in a core.APIError.
const maxErrorBody = 512

type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics
}

// NewClient builds the client from `backend.baseurl` and `backend.timeout`. mtr may be nil.
func NewClient(conf *core.Config, mtr *metrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(conf.Backend.BaseURL, "/"),
		http:    &http.Client{Timeout: conf.Backend.Timeout},
		metrics: mtr,
	}
}

// request describes one backend call. A non-nil file switches the body to multipart/form-data
// with fields sent as form values. Otherwise body is sent as JSON.
type request struct {
	endpoint  string // metric label
	method    string
	path      string
	query     url.Values
	body      interface{}
	fields    map[string]string
	file      *core.File
	anonymous bool
}

func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	var token string
	if !r.anonymous {
		var ok bool
		if token, ok = session.Token(ctx); !ok {
			return core.ErrNoToken
		}
	}

	body, contentType, err := encode(r)
	if err != nil {
		return errors.Wrapf(err, "encoding %s request", r.endpoint)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return errors.Wrapf(err, "building %s request", r.endpoint)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveBackend(r.endpoint, 0, time.Since(start))
		return errors.Wrapf(err, "%s %s", r.method, r.path)
	}
	defer resp.Body.Close()
	c.metrics.ObserveBackend(r.endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &core.APIError{Method: r.method, Path: r.path, Status: resp.StatusCode, Body: string(excerpt)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errors.Wrapf(err, "decoding %s response", r.endpoint)
	}
	return nil
}

func encode(r request) (io.Reader, string, error) {
	if r.file != nil {
		return encodeMultipart(r.fields, r.file)
	}
	if r.body == nil {
		return nil, "", nil
	}
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(r.body); err != nil {
		return nil, "", err
	}
	return buf, "application/json", nil
}

func encodeMultipart(fields map[string]string, file *core.File) (io.Reader, string, error) {
	if file.Content == nil {
		return nil, "", errors.New("file has no content")
	}
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err = io.Copy(part, file.Content); err != nil {
		return nil, "", err
	}
	if err = mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}
