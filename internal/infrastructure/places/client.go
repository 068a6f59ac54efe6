package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the Google Places web service. Place ids returned here
// are the ids the rest of the system keys ratings and promotion on; this
// service never mints ids of its own.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://maps.googleapis.com/maps/api/place"
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Place is the shared result block returned by the nearby and text
// searches. Fields the provider omits stay at their zero value and are
// dropped again on re-serialization.
type Place struct {
	PlaceID          string    `json:"place_id"`
	Name             string    `json:"name"`
	FormattedAddress string    `json:"formatted_address,omitempty"`
	Vicinity         string    `json:"vicinity,omitempty"`
	BusinessStatus   string    `json:"business_status,omitempty"`
	Types            []string  `json:"types,omitempty"`
	Geometry         *Geometry `json:"geometry,omitempty"`
	Photos           []Photo   `json:"photos,omitempty"`
}

type Geometry struct {
	Location LatLng `json:"location"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Photo struct {
	PhotoReference string `json:"photo_reference"`
	Height         int    `json:"height,omitempty"`
	Width          int    `json:"width,omitempty"`
}

// Details is the extended block returned by the place-details endpoint.
type Details struct {
	Place
	FormattedPhoneNumber string          `json:"formatted_phone_number,omitempty"`
	Website              string          `json:"website,omitempty"`
	OpeningHours         json.RawMessage `json:"opening_hours,omitempty"`
}

type searchResponse struct {
	Results      []Place `json:"results"`
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
}

type detailsResponse struct {
	Result       Details `json:"result"`
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message"`
}

// Nearby returns the places around the coordinate, in the provider's
// relevance order.
func (c *Client) Nearby(ctx context.Context, lat, lng float64) ([]Place, error) {
	query := url.Values{}
	query.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	query.Set("radius", "1500")
	return c.fetchSearch(ctx, c.BaseURL+"/nearbysearch/json?"+query.Encode())
}

// Search runs a free-text place search.
func (c *Client) Search(ctx context.Context, text string) ([]Place, error) {
	query := url.Values{}
	query.Set("query", text)
	return c.fetchSearch(ctx, c.BaseURL+"/textsearch/json?"+query.Encode())
}

// Details returns the extended record for one place id.
func (c *Client) Details(ctx context.Context, placeID string) (*Details, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, fmt.Errorf("placeID required")
	}
	query := url.Values{}
	query.Set("place_id", placeID)

	body, err := c.fetch(ctx, c.BaseURL+"/details/json?"+query.Encode())
	if err != nil {
		return nil, err
	}
	var out detailsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("places: decode error: %w body=%q", err, snippet(body))
	}
	if out.Status != "OK" {
		return nil, fmt.Errorf("places: status %s %s", out.Status, out.ErrorMessage)
	}
	return &out.Result, nil
}

// Photo streams one place photo and reports its content type. The provider
// serves the bytes behind a redirect, which the default client follows.
func (c *Client) Photo(ctx context.Context, reference string, maxWidth int) ([]byte, string, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, "", fmt.Errorf("photo reference required")
	}
	if maxWidth <= 0 {
		maxWidth = 400
	}
	query := url.Values{}
	query.Set("photoreference", reference)
	query.Set("maxwidth", strconv.Itoa(maxWidth))
	query.Set("key", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/photo?"+query.Encode(), nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("places: photo status %d body=%q", resp.StatusCode, snippet(body))
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return body, contentType, nil
}

func (c *Client) fetchSearch(ctx context.Context, rawURL string) ([]Place, error) {
	body, err := c.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("places: decode error: %w body=%q", err, snippet(body))
	}
	switch out.Status {
	case "OK":
		return out.Results, nil
	case "ZERO_RESULTS":
		return []Place{}, nil
	}
	return nil, fmt.Errorf("places: status %s %s", out.Status, out.ErrorMessage)
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if c.APIKey != "" {
		separator := "&"
		if !strings.Contains(rawURL, "?") {
			separator = "?"
		}
		rawURL += separator + "key=" + url.QueryEscape(c.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places: status %d body=%q", resp.StatusCode, snippet(body))
	}
	return body, nil
}

func snippet(body []byte) string {
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
