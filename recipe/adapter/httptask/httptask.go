// Package httptask provides a Task Capability that performs one HTTP
// request as an asynchronous recipe.TaskAdapter, reporting completion
// through a recipe.TaskHandle instead of returning a value directly.
package httptask

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/arborflow/taskrecipe/recipe"
)

// Result holds the outcome of a completed request, for a task's done
// handler to inspect via the adapter it was given.
type Result struct {
	StatusCode int
	Headers    http.Header
	Body       string
	Err        error
}

// Adapter is a recipe.TaskAdapter that issues a single HTTP request.
type Adapter struct {
	client  *http.Client
	method  string
	url     string
	headers map[string]string
	body    string

	cancel context.CancelFunc
	Result Result
}

// New creates an Adapter for method/url. headers and body are optional;
// an empty method defaults to GET.
func New(client *http.Client, method, url string, headers map[string]string, body string) *Adapter {
	if client == nil {
		client = &http.Client{}
	}
	if method == "" {
		method = http.MethodGet
	}
	return &Adapter{client: client, method: strings.ToUpper(method), url: url, headers: headers, body: body}
}

// Start issues the request on its own goroutine and reports completion
// through handle once the response (or a request error) is available.
func (a *Adapter) Start(handle recipe.TaskHandle) error {
	var bodyReader io.Reader
	if a.body != "" {
		bodyReader = bytes.NewBufferString(a.body)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	req, err := http.NewRequestWithContext(ctx, a.method, a.url, bodyReader)
	if err != nil {
		cancel()
		return fmt.Errorf("httptask: build request: %w", err)
	}
	for k, v := range a.headers {
		req.Header.Set(k, v)
	}

	go func() {
		resp, err := a.client.Do(req)
		if err != nil {
			a.Result.Err = err
			handle.Done(false)
			return
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			a.Result.Err = err
			handle.Done(false)
			return
		}

		a.Result = Result{StatusCode: resp.StatusCode, Headers: resp.Header, Body: string(respBody)}
		handle.Done(resp.StatusCode < 400)
	}()
	return nil
}

// RequestCancel aborts the in-flight request via its context.
func (a *Adapter) RequestCancel() {
	if a.cancel != nil {
		a.cancel()
	}
}
