package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/vidatlas/vidatlas/pkg/model"
)

const defaultEndpoint = "https://nominatim.openstreetmap.org"

// Nominatim is a reverse geocoding client.
// The public instance allows at most one request per second, so calls are rate limited.
type Nominatim struct {
	endpoint  string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

func NewNominatim(endpoint, userAgent string) *Nominatim {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	return &Nominatim{
		endpoint:  strings.TrimSuffix(endpoint, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type reverseResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Hamlet  string `json:"hamlet"`
		Country string `json:"country"`
	} `json:"address"`
}

// ReverseGeocode resolves coordinates to a city/country pair.
// City falls back through town, village and hamlet when the address has no city.
func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lon float64) (model.Location, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return model.Location{}, err
	}

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("zoom", "10")
	query.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.endpoint+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return model.Location{}, errors.Wrap(err, "failed to create reverse geocode request")
	}

	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return model.Location{}, errors.Wrap(err, "failed to query reverse geocoder")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Location{}, errors.Errorf("reverse geocoder returned status %d", resp.StatusCode)
	}

	var payload reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return model.Location{}, errors.Wrap(err, "failed to decode reverse geocode response")
	}

	var location model.Location

	city := payload.Address.City
	if city == "" {
		city = payload.Address.Town
	}
	if city == "" {
		city = payload.Address.Village
	}
	if city == "" {
		city = payload.Address.Hamlet
	}

	if city != "" {
		location.City = &city
	}

	if country := payload.Address.Country; country != "" {
		location.Country = &country
	}

	return location, nil
}
