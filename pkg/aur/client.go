package aur

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/polnio/unipac-features/pkg/platform"
)

// DefaultURL is the public AUR
const DefaultURL = "https://aur.archlinux.org"

// maxInfoArgs bounds the arg[] count of one info request
const maxInfoArgs = 150

// ErrRPC is returned when the AUR answers with an error envelope
var ErrRPC = errors.New("aur rpc error")

// Client talks to the AUR RPC interface
type Client struct {
	baseURL string
	http    *platform.Client
}

// NewClient creates an RPC client for baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    platform.NewClient(timeout),
	}
}

func (c *Client) rpc(ctx context.Context, params url.Values) ([]Package, error) {
	params.Set("v", "5")
	var resp rpcResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/rpc/?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Type == "error" || resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrRPC, resp.Error)
	}
	return resp.Results, nil
}

// Search queries the AUR by name or by name and description
func (c *Client) Search(ctx context.Context, query string, by SearchBy) ([]Package, error) {
	params := url.Values{}
	params.Set("type", "search")
	params.Set("by", string(by))
	params.Set("arg", query)
	pkgs, err := c.rpc(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	return pkgs, nil
}

// Info fetches the records of the given packages. Unknown names are
// silently absent from the result.
func (c *Client) Info(ctx context.Context, names ...string) ([]Package, error) {
	var all []Package
	for start := 0; start < len(names); start += maxInfoArgs {
		end := min(start+maxInfoArgs, len(names))

		params := url.Values{}
		params.Set("type", "info")
		for _, n := range names[start:end] {
			params.Add("arg[]", n)
		}
		pkgs, err := c.rpc(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("fetching info: %w", err)
		}
		all = append(all, pkgs...)
	}
	return all, nil
}

// SnapshotURL returns the tarball URL of a package base
func (c *Client) SnapshotURL(base string) string {
	return fmt.Sprintf("%s/cgit/aur.git/snapshot/%s.tar.gz", c.baseURL, url.PathEscape(base))
}
