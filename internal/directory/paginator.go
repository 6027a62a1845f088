package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// PagedResponse mirrors the envelope returned by the education-data API:
// a page of results plus the absolute URL of the next page, if any.
type PagedResponse struct {
	Results []json.RawMessage `json:"results"`
	Next    *string           `json:"next"`
	Count   int               `json:"count,omitempty"`
}

// HTTPDoer is the fetch capability the paginator depends on. *http.Client
// satisfies it; tests substitute a stub.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetchAllPages follows the upstream "next" links starting at url until
// exhausted, returning the concatenation of every page's results in page
// order. There is no retry and no deduplication; any non-2xx response or
// undecodable page fails the whole pull and discards pages already read.
func FetchAllPages(ctx context.Context, client HTTPDoer, url string) ([]json.RawMessage, error) {
	var out []json.RawMessage

	next := url
	for next != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, fmt.Errorf("directory: build request for %s: %w", next, err)
		}
		req.Header.Set("Accept", "application/json")

		res, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("directory: fetch %s: %w", next, err)
		}

		page, err := decodePage(res, next)
		if err != nil {
			return nil, err
		}

		out = append(out, page.Results...)

		if page.Next == nil || *page.Next == "" {
			break
		}
		next = *page.Next
	}

	return out, nil
}

func decodePage(res *http.Response, url string) (*PagedResponse, error) {
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("directory: upstream status %d for %s", res.StatusCode, url)
	}

	var page PagedResponse
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("directory: decode page %s: %w", url, err)
	}

	return &page, nil
}
