package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// errInvalidStatusQuery is returned for a missing or malformed status query parameter
var errInvalidStatusQuery = errors.New(ErrMsgInvalidStatus)

// parseStatusValue accepts true or false in any letter case
func parseStatusValue(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, errInvalidStatusQuery
	}
}

// statusQueryAndRespond reads the status query parameter.
// It sends a 400 and returns false when the value is missing or malformed.
func statusQueryAndRespond(w http.ResponseWriter, r *http.Request) (bool, bool) {
	status, err := parseStatusValue(r.URL.Query().Get(QueryStatus))
	if err != nil {
		sendError(w, http.StatusBadRequest, StatusBadRequest, err.Error())
		return false, false
	}
	return status, true
}

// bandParamAndRespond reads the band path parameter.
// It sends a 400 and returns false when the band is not supported.
func bandParamAndRespond(w http.ResponseWriter, r *http.Request) (string, bool) {
	band := chi.URLParam(r, "band")
	if err := validateBand(band); err != nil {
		sendError(w, http.StatusBadRequest, StatusBadRequest, fmt.Sprintf(ErrMsgUnknownBand, band))
		return "", false
	}
	return band, true
}
