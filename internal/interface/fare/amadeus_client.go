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

const amadeusProvider = "amadeus"

// AmadeusClient searches the Amadeus flight-offers API.
// httpClient must authorize requests, see oauth.AmadeusOAuth.
type AmadeusClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
	maxOffers  int
}

// NewAmadeusClient creates a flight-offers client for the API at baseURL
func NewAmadeusClient(baseURL string, httpClient *http.Client, logger logger.Logger) repository.FareSearchRepository {
	return &AmadeusClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		maxOffers:  5,
	}
}

type amadeusResponse struct {
	Data []struct {
		ID          string `json:"id"`
		Itineraries []struct {
			Segments []struct {
				CarrierCode string `json:"carrierCode"`
				Number      string `json:"number"`
				Departure   struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"departure"`
			} `json:"segments"`
		} `json:"itineraries"`
		Price struct {
			Currency   string `json:"currency"`
			GrandTotal string `json:"grandTotal"`
		} `json:"price"`
		TravelerPricings []struct {
			FareDetailsBySegment []struct {
				Cabin string `json:"cabin"`
			} `json:"fareDetailsBySegment"`
		} `json:"travelerPricings"`
	} `json:"data"`
}

// Name returns the provider label used in metrics
func (c *AmadeusClient) Name() string {
	return amadeusProvider
}

// Search returns the offers for one departure/return/cabin sample
func (c *AmadeusClient) Search(ctx context.Context, query entity.FareQuery) ([]entity.Offer, error) {
	params := url.Values{}
	params.Set("originLocationCode", query.Origin)
	params.Set("destinationLocationCode", query.Destination)
	params.Set("departureDate", query.DepartureDate.Format(entity.DateLayout))
	if query.ReturnDate != nil {
		params.Set("returnDate", query.ReturnDate.Format(entity.DateLayout))
	}
	params.Set("adults", "1")
	params.Set("travelClass", string(query.Cabin))
	params.Set("currencyCode", query.Currency)
	params.Set("max", strconv.Itoa(c.maxOffers))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/shopping/flight-offers?"+params.Encode(), nil)
	if err != nil {
		return nil, &entity.AdapterError{Provider: amadeusProvider, Kind: entity.AdapterTransient, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(amadeusProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(amadeusProvider, resp)
	}

	var body amadeusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &entity.AdapterError{
			Provider:   amadeusProvider,
			Kind:       entity.AdapterTransient,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode offers: %w", err),
		}
	}

	offers := make([]entity.Offer, 0, len(body.Data))
	for _, d := range body.Data {
		price, err := strconv.ParseFloat(d.Price.GrandTotal, 64)
		if err != nil {
			c.logger.Warn("Skipping offer with unparsable price", "offerId", d.ID, "price", d.Price.GrandTotal)
			continue
		}

		var flights []string
		for _, it := range d.Itineraries {
			for _, seg := range it.Segments {
				flights = append(flights, seg.CarrierCode+seg.Number)
			}
		}

		cabin := query.Cabin
		if len(d.TravelerPricings) > 0 && len(d.TravelerPricings[0].FareDetailsBySegment) > 0 {
			if quoted := d.TravelerPricings[0].FareDetailsBySegment[0].Cabin; quoted != "" {
				cabin = entity.CabinClass(quoted)
			}
		}

		currency := d.Price.Currency
		if currency == "" {
			currency = query.Currency
		}

		offers = append(offers, entity.Offer{
			OfferID:       stableOfferID(flights, query.DepartureDate, query.ReturnDate),
			Price:         price,
			Currency:      currency,
			Cabin:         cabin,
			Summary:       strings.Join(flights, " · "),
			DepartureDate: query.DepartureDate,
			ReturnDate:    query.ReturnDate,
		})
	}
	return offers, nil
}

// stableOfferID identifies an itinerary by its flights and dates. Amadeus
// ids are positions within a single response.
func stableOfferID(flights []string, departure time.Time, ret *time.Time) string {
	id := strings.Join(flights, "-") + "@" + departure.Format(entity.DateLayout)
	if ret != nil {
		id += "/" + ret.Format(entity.DateLayout)
	}
	return id
}
