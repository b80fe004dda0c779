package event

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
)

// geocodeAddress resolves a venue address to coordinates through a
// Nominatim-compatible endpoint. Best effort: any failure leaves the
// event without coordinates.
func geocodeAddress(address string) (float64, float64, error) {
	base := os.Getenv("GEOCODE_URL")
	if base == "" {
		base = "https://nominatim.openstreetmap.org/search"
	}

	req, err := http.NewRequest("GET", fmt.Sprintf("%s?q=%s&format=json&limit=1", base, url.QueryEscape(address)), nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("User-Agent", "art-corner-server")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("geocode request failed with status %d", resp.StatusCode)
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, err
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("no geocode result for %q", address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}
