package main

import (
	"net/http"

	"go.uber.org/zap"
)

// apiHandlers holds the components served by the REST façade
type apiHandlers struct {
	controller *Controller
	stations   *StationManager
	service    *SmartBandService
}

// getWifiStatusHandler returns the global wifi state
//
//	@Summary		Get wifi status
//	@Description	Reads the global wifi state from the gateway
//	@Tags			WiFi
//	@Produce		json
//	@Success		200	{object}	Response{data=map[string]bool}
//	@Failure		401	{object}	Response
//	@Failure		429	{object}	Response
//	@Failure		500	{object}	Response
//	@Security		ApiKeyAuth
//	@Router			/wifi [get]
func (h *apiHandlers) getWifiStatusHandler(w http.ResponseWriter, r *http.Request) {
	status, err := h.controller.CachedWifiStatus(r.Context())
	if err != nil {
		sendDeviceError(w, "wifi status", err)
		return
	}
	sendResponse(w, http.StatusOK, StatusOK, map[string]bool{"status": status})
}

// setWifiStatusHandler switches wifi globally and waits for the gateway to converge
//
//	@Summary		Set wifi status
//	@Description	Switches wifi on or off and waits until the gateway reports the new state
//	@Tags			WiFi
//	@Produce		json
//	@Param			status	query		bool	true	"Desired state"
//	@Success		200		{object}	Response{data=map[string]bool}
//	@Failure		400		{object}	Response
//	@Failure		401		{object}	Response
//	@Failure		429		{object}	Response
//	@Failure		500		{object}	Response
//	@Security		ApiKeyAuth
//	@Router			/wifi [post]
func (h *apiHandlers) setWifiStatusHandler(w http.ResponseWriter, r *http.Request) {
	desired, ok := statusQueryAndRespond(w, r)
	if !ok {
		return
	}
	status, err := h.controller.SetWifiStatus(r.Context(), desired)
	if err != nil {
		sendDeviceError(w, "set wifi status", err)
		return
	}
	AuditLogWithFields(AuditEventStatusChange, GetClientIP(r), map[string]interface{}{
		"target": "wifi", "status": status,
	})
	sendResponse(w, http.StatusOK, StatusOK, map[string]bool{"status": status})
}

// getWifiSummaryHandler returns the global wifi state and every band
//
//	@Summary		Get wifi summary
//	@Description	Reads the global wifi state and the state of every radio band
//	@Tags			WiFi
//	@Produce		json
//	@Success		200	{object}	Response{data=WifiSummary}
//	@Failure		401	{object}	Response
//	@Failure		429	{object}	Response
//	@Failure		500	{object}	Response
//	@Security		ApiKeyAuth
//	@Router			/wifi/summary [get]
func (h *apiHandlers) getWifiSummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.controller.Summary(r.Context())
	if err != nil {
		sendDeviceError(w, "wifi summary", err)
		return
	}
	sendResponse(w, http.StatusOK, StatusOK, summary)
}

// getBandStatusHandler returns the state of one band
//
//	@Summary		Get band status
//	@Description	Reads the state of one radio band
//	@Tags			WiFi
//	@Produce		json
//	@Param			band	path		string	true	"Band"	Enums(2.4GHz, 5GHz, 6GHz)
//	@Success		200		{object}	Response{data=BandStatus}
//	@Failure		400		{object}	Response
//	@Failure		401		{object}	Response
//	@Failure		429		{object}	Response
//	@Failure		500		{object}	Response
//	@Security		ApiKeyAuth
//	@Router			/wifi/bands/{band} [get]
func (h *apiHandlers) getBandStatusHandler(w http.ResponseWriter, r *http.Request) {
	band, ok := bandParamAndRespond(w, r)
	if !ok {
		return
	}
	status, err := h.controller.CachedBandStatus(r.Context(), band)
	if err != nil {
		sendDeviceError(w, "band status", err)
		return
	}
	sendResponse(w, http.StatusOK, StatusOK, BandStatus{Band: band, Status: status})
}

// setBandStatusHandler switches one band and waits for the gateway to converge
//
//	@Summary		Set band status
//	@Description	Switches one radio band on or off and waits until the gateway reports the new state
//	@Tags			WiFi
//	@Produce		json
//	@Param			band	path		string	true	"Band"	Enums(2.4GHz, 5GHz, 6GHz)
//	@Param			status	query		bool	true	"Desired state"
//	@Success		200		{object}	Response{data=BandStatus}
//	@Failure		400		{object}	Response
//	@Failure		401		{object}	Response
//	@Failure		429		{object}	Response
//	@Failure		500		{object}	Response
//	@Security		ApiKeyAuth
//	@Router			/wifi/bands/{band} [post]
func (h *apiHandlers) setBandStatusHandler(w http.ResponseWriter, r *http.Request) {
	band, ok := bandParamAndRespond(w, r)
	if !ok {
		return
	}
	desired, ok := statusQueryAndRespond(w, r)
	if !ok {
		return
	}
	status, err := h.controller.SetBandStatus(r.Context(), band, desired)
	if err != nil {
		sendDeviceError(w, "set band status", err)
		return
	}
	if band == Band5GHz && h.service != nil {
		h.service.setFiveGHz(status)
	}
	AuditLogWithFields(AuditEventStatusChange, GetClientIP(r), map[string]interface{}{
		"target": band, "status": status,
	})
	sendResponse(w, http.StatusOK, StatusOK, BandStatus{Band: band, Status: status})
}

// getStationsHandler lists associated stations of every band
//
//	@Summary		List stations
//	@Description	Lists the MAC address of every station associated on any band
//	@Tags			Stations
//	@Produce		json
//	@Success		200	{object}	Response{data=StationList}
//	@Failure		401	{object}	Response
//	@Failure		429	{object}	Response
//	@Failure		500	{object}	Response
//	@Security		ApiKeyAuth
//	@Router			/wifi/stations [get]
func (h *apiHandlers) getStationsHandler(w http.ResponseWriter, r *http.Request) {
	h.listStations(w, r, "")
}

// getBandStationsHandler lists associated stations of one band
//
//	@Summary		List band stations
//	@Description	Lists the MAC address of every station associated on one band
//	@Tags			Stations
//	@Produce		json
//	@Param			band	path		string	true	"Band"	Enums(2.4GHz, 5GHz, 6GHz)
//	@Success		200		{object}	Response{data=StationList}
//	@Failure		400		{object}	Response
//	@Failure		401		{object}	Response
//	@Failure		429		{object}	Response
//	@Failure		500		{object}	Response
//	@Security		ApiKeyAuth
//	@Router			/wifi/stations/{band} [get]
func (h *apiHandlers) getBandStationsHandler(w http.ResponseWriter, r *http.Request) {
	band, ok := bandParamAndRespond(w, r)
	if !ok {
		return
	}
	h.listStations(w, r, band)
}

func (h *apiHandlers) listStations(w http.ResponseWriter, r *http.Request, band string) {
	macs, err := h.stations.ListAssociated(r.Context(), band)
	if err != nil {
		sendDeviceError(w, "list stations", err)
		return
	}
	if macs == nil {
		macs = []string{}
	}
	logger.Debug("Stations listed", zap.String("band", band), zap.Int("count", len(macs)))
	sendResponse(w, http.StatusOK, StatusOK, StationList{Band: band, Stations: macs})
}

// clearCacheHandler drops every cached band status
//
//	@Summary		Clear status cache
//	@Description	Drops every cached wifi and band status so the next read hits the gateway
//	@Tags			WiFi
//	@Produce		json
//	@Success		200	{object}	Response{data=map[string]string}
//	@Failure		401	{object}	Response
//	@Failure		429	{object}	Response
//	@Security		ApiKeyAuth
//	@Router			/cache/clear [post]
func (h *apiHandlers) clearCacheHandler(w http.ResponseWriter, r *http.Request) {
	h.controller.cache.clearAll()
	AuditLog(AuditEventCacheClear, GetClientIP(r), "Status cache cleared")
	sendResponse(w, http.StatusOK, StatusOK, map[string]string{"message": MsgCacheCleared})
}
