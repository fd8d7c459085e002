package fare

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"dealwatch-service/internal/domain/entity"

	"golang.org/x/oauth2"
)

// statusError builds the adapter error for a non-2xx provider response
func statusError(provider string, resp *http.Response) *entity.AdapterError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := fmt.Errorf("unexpected status: %s", string(body))

	kind := entity.AdapterTransient
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		kind = entity.AdapterRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = entity.AdapterUnauthorized
	}
	return &entity.AdapterError{Provider: provider, Kind: kind, StatusCode: resp.StatusCode, Err: err}
}

// transportError classifies a failed round trip. A rejected token
// request means the credentials are bad.
func transportError(provider string, err error) *entity.AdapterError {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.Response != nil {
		switch rerr.Response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return &entity.AdapterError{Provider: provider, Kind: entity.AdapterUnauthorized, StatusCode: rerr.Response.StatusCode, Err: err}
		}
	}
	return &entity.AdapterError{Provider: provider, Kind: entity.AdapterTransient, Err: err}
}
