// Package webclient loads page documents for the terminal page context,
// either over plain HTTP or through a headless browser.
package webclient

import "context"

type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	Get(ctx context.Context, url string) (*Response, error)
	Close() error
}
