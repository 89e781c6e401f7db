package tables

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const defaultFetchTimeout = 5 * time.Second

var fetchClient = &fasthttp.Client{
	Name:                "pension-forecast",
	MaxConnsPerHost:     16,
	MaxIdleConnDuration: 90 * time.Second,
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// readSource returns the raw bytes of a local file or an http(s) resource.
func readSource(src string, timeout time.Duration) ([]byte, error) {
	if !isRemote(src) {
		return os.ReadFile(src)
	}
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(src)
	req.Header.SetMethod(fasthttp.MethodGet)
	if err := fetchClient.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", src, resp.StatusCode())
	}

	// resp is returned to the pool, so the body must be copied out.
	body := append([]byte(nil), resp.Body()...)
	return body, nil
}

// sourceExt returns the lower-cased extension of a path or URL path.
func sourceExt(src string) string {
	if isRemote(src) {
		if u, err := url.Parse(src); err == nil {
			src = u.Path
		}
	}
	return strings.ToLower(filepath.Ext(src))
}
