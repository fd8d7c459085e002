package fare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/internal/domain/repository"
	"dealwatch-service/pkg/logger"
)

const (
	kiwiProvider   = "kiwi"
	kiwiDateLayout = "02/01/2006"
)

// kiwiCabins maps cabins to Tequila selected_cabins codes
var kiwiCabins = map[entity.CabinClass]string{
	entity.CabinEconomy:        "M",
	entity.CabinPremiumEconomy: "W",
	entity.CabinBusiness:       "C",
	entity.CabinFirst:          "F",
}

// KiwiClient searches the Kiwi Tequila v2 search API
type KiwiClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger
	limit      int
}

// NewKiwiClient creates a Tequila search client
func NewKiwiClient(baseURL, apiKey string, logger logger.Logger) repository.FareSearchRepository {
	return &KiwiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		limit:      5,
	}
}

type kiwiResponse struct {
	Currency string `json:"currency"`
	Data     []struct {
		ID       string  `json:"id"`
		Price    float64 `json:"price"`
		DeepLink string  `json:"deep_link"`
		Route    []struct {
			Airline  string `json:"airline"`
			FlightNo int    `json:"flight_no"`
			Return   int    `json:"return"`
		} `json:"route"`
	} `json:"data"`
}

// Name returns the provider label used in metrics
func (c *KiwiClient) Name() string {
	return kiwiProvider
}

// Search returns the offers for one departure/return/cabin sample
func (c *KiwiClient) Search(ctx context.Context, query entity.FareQuery) ([]entity.Offer, error) {
	departure := query.DepartureDate.Format(kiwiDateLayout)

	params := url.Values{}
	params.Set("fly_from", query.Origin)
	params.Set("fly_to", query.Destination)
	params.Set("date_from", departure)
	params.Set("date_to", departure)
	if query.ReturnDate != nil {
		ret := query.ReturnDate.Format(kiwiDateLayout)
		params.Set("return_from", ret)
		params.Set("return_to", ret)
		params.Set("flight_type", "round")
	} else {
		params.Set("flight_type", "oneway")
	}
	if code, ok := kiwiCabins[query.Cabin]; ok {
		params.Set("selected_cabins", code)
	}
	params.Set("adults", "1")
	params.Set("curr", query.Currency)
	params.Set("limit", strconv.Itoa(c.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/search?"+params.Encode(), nil)
	if err != nil {
		return nil, &entity.AdapterError{Provider: kiwiProvider, Kind: entity.AdapterTransient, Err: err}
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(kiwiProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(kiwiProvider, resp)
	}

	var body kiwiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &entity.AdapterError{
			Provider:   kiwiProvider,
			Kind:       entity.AdapterTransient,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode offers: %w", err),
		}
	}

	currency := body.Currency
	if currency == "" {
		currency = query.Currency
	}

	offers := make([]entity.Offer, 0, len(body.Data))
	for _, d := range body.Data {
		var out, back []string
		for _, leg := range d.Route {
			flight := fmt.Sprintf("%s%d", leg.Airline, leg.FlightNo)
			if leg.Return == 1 {
				back = append(back, flight)
			} else {
				out = append(out, flight)
			}
		}
		summary := strings.Join(out, " · ")
		if len(back) > 0 {
			summary += " / " + strings.Join(back, " · ")
		}

		offers = append(offers, entity.Offer{
			OfferID:       d.ID,
			Price:         d.Price,
			Currency:      currency,
			Cabin:         query.Cabin,
			Summary:       summary,
			DepartureDate: query.DepartureDate,
			ReturnDate:    query.ReturnDate,
			DeepLink:      d.DeepLink,
		})
	}
	return offers, nil
}
