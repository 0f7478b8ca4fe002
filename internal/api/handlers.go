package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/udisondev/pokenav/internal/grid"
	"github.com/udisondev/pokenav/internal/mapdata"
	"github.com/udisondev/pokenav/internal/nav"
)

// MapSummary is one entry of GET /api/maps.
type MapSummary struct {
	ID     mapdata.MapID `json:"id"`
	Name   string        `json:"name"`
	Size   grid.Size     `json:"size"`
	Offset grid.Point    `json:"offset"`
	Level  int           `json:"level"`
}

// ConnectionInfo is a map connection in GET /api/maps/{group}/{number}.
type ConnectionInfo struct {
	Direction grid.Direction `json:"direction"`
	Map       mapdata.MapID  `json:"map"`
	Offset    int            `json:"offset"`
}

// MapDetail is the response of GET /api/maps/{group}/{number}.
type MapDetail struct {
	MapSummary
	Connections []ConnectionInfo `json:"connections"`
}

// PathRequest is the body of POST /api/path. Omitted options take their
// defaults: both avoidances on, no surfing, configured expansion budget.
type PathRequest struct {
	Source              nav.Location `json:"source"`
	Destination         nav.Location `json:"destination"`
	AvoidEncounters     *bool        `json:"avoid_encounters,omitempty"`
	AvoidScriptedEvents *bool        `json:"avoid_scripted_events,omitempty"`
	CanSurf             bool         `json:"can_surf,omitempty"`
	MaxExpansions       *int         `json:"max_expansions,omitempty"`
}

func (r PathRequest) options(defaults nav.PathOptions) nav.PathOptions {
	opts := defaults
	if r.AvoidEncounters != nil {
		opts.AvoidEncounters = *r.AvoidEncounters
	}
	if r.AvoidScriptedEvents != nil {
		opts.AvoidScriptedEvents = *r.AvoidScriptedEvents
	}
	if r.MaxExpansions != nil {
		opts.MaxExpansions = *r.MaxExpansions
	}
	opts.CanSurf = r.CanSurf
	return opts
}

// WaypointResponse adds the button name to a nav.Waypoint.
type WaypointResponse struct {
	nav.Waypoint
	WalkingDirection string `json:"walking_direction"`
}

// PathResponse is the success body of POST /api/path.
type PathResponse struct {
	Waypoints []WaypointResponse `json:"waypoints"`
}

// StateResponse is the body of GET /api/state.
type StateResponse struct {
	CapturedAt time.Time `json:"captured_at"`
	AgeSeconds float64   `json:"age_seconds"`
	Stale      bool      `json:"stale"`
	Flags      int       `json:"flags"`
	Vars       int       `json:"vars"`
	Characters int       `json:"characters"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func summarize(m *nav.Map) MapSummary {
	return MapSummary{ID: m.ID, Name: m.Name, Size: m.Size, Offset: m.Offset, Level: m.Level}
}

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := s.engine.Atlas().Maps()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]MapSummary, 0, len(maps))
	for _, m := range maps {
		out = append(out, summarize(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	group, err := strconv.ParseUint(vars["group"], 10, 8)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	number, err := strconv.ParseUint(vars["number"], 10, 8)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	m, err := s.engine.Atlas().Map(mapdata.MapID{Group: uint8(group), Number: uint8(number)})
	if errors.Is(err, mapdata.ErrUnknownMap) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	detail := MapDetail{MapSummary: summarize(m), Connections: []ConnectionInfo{}}
	for _, dir := range grid.Directions {
		if c := m.Connections[dir]; c != nil {
			detail.Connections = append(detail.Connections, ConnectionInfo{Direction: dir, Map: c.Map, Offset: c.Offset})
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	var req PathRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.MaxExpansions != nil && *req.MaxExpansions < 0 {
		writeError(w, http.StatusBadRequest, errors.New("max_expansions must not be negative"))
		return
	}

	state := s.feed.Current()
	path, err := s.engine.CalculatePath(state, req.Source, req.Destination, req.options(s.defaults))
	if err != nil {
		var pfe *nav.PathFindingError
		if errors.As(err, &pfe) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := PathResponse{Waypoints: make([]WaypointResponse, 0, len(path))}
	for _, wp := range path {
		resp.Waypoints = append(resp.Waypoints, WaypointResponse{Waypoint: wp, WalkingDirection: wp.WalkingDirection()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap := s.feed.Current()
	resp := StateResponse{
		CapturedAt: snap.CapturedAt,
		Stale:      true,
		Flags:      len(snap.Flags),
		Vars:       len(snap.Vars),
		Characters: len(snap.Spawned),
	}
	if !snap.CapturedAt.IsZero() {
		age := s.now().Sub(snap.CapturedAt)
		resp.AgeSeconds = age.Seconds()
		resp.Stale = s.cfg.StateStaleAfter > 0 && age > s.cfg.StateStaleAfter
	}
	writeJSON(w, http.StatusOK, resp)
}
