package main

import (
	"net/http"
)

// getSmartBandHandler returns the control loop state
//
//	@Summary		Get smart band status
//	@Description	Returns whether the smart band service is active, the last observed 5GHz state and the number of tracked stations
//	@Tags			SmartBand
//	@Produce		json
//	@Success		200	{object}	Response{data=SmartBandStatus}
//	@Failure		401	{object}	Response
//	@Failure		429	{object}	Response
//	@Security		ApiKeyAuth
//	@Router			/smart_band [get]
func (h *apiHandlers) getSmartBandHandler(w http.ResponseWriter, _ *http.Request) {
	sendResponse(w, http.StatusOK, StatusOK, SmartBandStatus{
		Active:         h.service.ServiceActive(),
		Band5GHzStatus: h.service.FiveGHzOn(),
		Stations:       h.service.StationCount(),
	})
}

// setSmartBandHandler activates or deactivates the control loop
//
//	@Summary		Set smart band status
//	@Description	Activates or deactivates the smart band service. An inactive service still reports its status every tick.
//	@Tags			SmartBand
//	@Produce		json
//	@Param			status	query		bool	true	"Desired state"
//	@Success		200		{object}	Response{data=SmartBandStatus}
//	@Failure		400		{object}	Response
//	@Failure		401		{object}	Response
//	@Failure		429		{object}	Response
//	@Security		ApiKeyAuth
//	@Router			/smart_band [post]
func (h *apiHandlers) setSmartBandHandler(w http.ResponseWriter, r *http.Request) {
	active, ok := statusQueryAndRespond(w, r)
	if !ok {
		return
	}
	h.service.SetServiceActive(active)
	AuditLogWithFields(AuditEventServiceToggle, GetClientIP(r), map[string]interface{}{"active": active})
	h.getSmartBandHandler(w, r)
}

// getSmartBandStationsHandler returns the counter record of every tracked station
//
//	@Summary		Get tracked stations
//	@Description	Returns throughput windows, RSSI and RTT history of every station tracked by the smart band service
//	@Tags			SmartBand
//	@Produce		json
//	@Success		200	{object}	Response{data=[]StationSnapshot}
//	@Failure		401	{object}	Response
//	@Failure		429	{object}	Response
//	@Security		ApiKeyAuth
//	@Router			/smart_band/stations [get]
func (h *apiHandlers) getSmartBandStationsHandler(w http.ResponseWriter, _ *http.Request) {
	sendResponse(w, http.StatusOK, StatusOK, h.service.Stations())
}
