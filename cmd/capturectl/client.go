package main

import (
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

const requestTimeout = 90 * time.Second

func newClient(apiURL string) *resty.Client {
	return resty.New().
		SetBaseURL(apiURL).
		SetTimeout(requestTimeout).
		SetHeader("Accept", "application/json")
}

// call sends one request and copies the body to out. Non-2xx responses
// become errors carrying the status and body.
func call(c *resty.Client, method, path string, body any, headers map[string]string, out io.Writer) error {
	req := c.R().SetHeaders(headers)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	_, err = fmt.Fprintln(out, resp.String())
	return err
}
