// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package location implements the map location picker of the seller dashboard.

A seller clicks points on a map; each click becomes a [Picker.Pick]. Reverse
geocoding of a point runs only after a quiet period (debounce), and only the
latest point's result is ever shown. Superseded lookups are aborted through
their context rather than discarded after the fact.

Components:

  - Geocoder: reverse geocoding over HTTP (Nominatim-compatible).
  - CachedGeocoder: geohash-keyed Redis cache in front of a Geocoder.
  - Picker: debounce, generation tracking and the Loading/PlaceName state.
  - Handler: one-shot lookup endpoint and the live picker WebSocket.
*/
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/taibuivan/farmgate/internal/platform/constants"
)

// ErrNoPlace is returned when the geocoder knows nothing about a point.
var ErrNoPlace = errors.New("location: no place at point")

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geocoder resolves a point to a human-readable place name.
type Geocoder interface {
	Reverse(ctx context.Context, point Point) (string, error)
}

// # HTTP Geocoder

// HTTPGeocoder calls GET {baseURL}/reverse?format=json&lat=&lon=.
type HTTPGeocoder struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPGeocoder creates a reverse geocoder rooted at baseURL.
func NewHTTPGeocoder(baseURL string, timeout time.Duration) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Reverse resolves point. A cancelled ctx aborts the request in flight.
func (geocoder *HTTPGeocoder) Reverse(ctx context.Context, point Point) (string, error) {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("lat", strconv.FormatFloat(point.Latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(point.Longitude, 'f', -1, 64))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, geocoder.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("location: build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", constants.AppName+"/"+constants.AppVersion)

	response, err := geocoder.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("location: reverse: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("location: reverse returned status %d", response.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(io.LimitReader(response.Body, 1<<20)).Decode(&body); err != nil {
		return "", fmt.Errorf("location: decode reverse: %w", err)
	}

	if body.DisplayName == "" {
		return "", ErrNoPlace
	}
	return body.DisplayName, nil
}
