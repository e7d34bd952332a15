package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

const defaultUserAgent = "metaversekit-account/0.1"

// Client is the net/http backed Service.
type Client struct {
	http      *http.Client
	userAgent string
}

// Option represents option
type Option func(c *Client)

// WithHTTPClient sets the underlying http client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// WithUserAgent sets the User-Agent header value
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// New creates a transport client.
func New(options ...Option) *Client {
	ret := &Client{
		http:      http.DefaultClient,
		userAgent: defaultUserAgent,
	}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Do performs the exchange and returns its single completion. It never panics
// across the boundary; all failures are reported on the Response.
func (c *Client) Do(ctx context.Context, request *Request) *Response {
	response := &Response{URL: request.URL, Properties: request.Properties}

	body, contentType, err := encodeBody(request)
	if err != nil {
		response.Err = err
		return response
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
		if request.Progress != nil {
			reader = &progressReader{reader: reader, total: int64(len(body)), report: request.Progress}
		}
	}

	httpRequest, err := http.NewRequestWithContext(ctx, request.Method, request.URL, reader)
	if err != nil {
		response.Err = err
		return response
	}
	for key, values := range request.Header {
		for _, value := range values {
			httpRequest.Header.Add(key, value)
		}
	}
	if contentType != "" {
		httpRequest.Header.Set("Content-Type", contentType)
	}
	httpRequest.Header.Set("User-Agent", c.userAgent)

	httpResponse, err := c.http.Do(httpRequest)
	if err != nil {
		response.Err = err
		return response
	}
	defer httpResponse.Body.Close()

	data, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		response.Err = fmt.Errorf("failed to read response body: %w", err)
		return response
	}
	response.StatusCode = httpResponse.StatusCode
	response.Body = data
	if httpResponse.Request != nil && httpResponse.Request.URL != nil {
		response.URL = httpResponse.Request.URL.String()
	}
	return response
}

// encodeBody returns the raw request body and, for multipart requests, the
// content type carrying the part boundary.
func encodeBody(request *Request) ([]byte, string, error) {
	if len(request.Parts) == 0 {
		return request.Body, "", nil
	}
	buffer := &bytes.Buffer{}
	writer := multipart.NewWriter(buffer)
	for _, part := range request.Parts {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, part.Name, part.FileName))
		if part.ContentType != "" {
			header.Set("Content-Type", part.ContentType)
		}
		partWriter, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form part %v: %w", part.Name, err)
		}
		if _, err = partWriter.Write(part.Data); err != nil {
			return nil, "", fmt.Errorf("failed to write form part %v: %w", part.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buffer.Bytes(), writer.FormDataContentType(), nil
}

type progressReader struct {
	reader io.Reader
	sent   int64
	total  int64
	report ProgressFunc
}

func (p *progressReader) Read(data []byte) (int, error) {
	n, err := p.reader.Read(data)
	if n > 0 {
		p.sent += int64(n)
		p.report(p.sent, p.total)
	}
	return n, err
}
