// Package fsmhttp exposes a built machine over HTTP so transitions can be triggered from
// browsers, scripts or other services.
package fsmhttp

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/go-chi/chi/v5"
)

// StateResponse is the body of GET /state.
type StateResponse struct {
	Machine  string `json:"machine"`
	EngineID string `json:"engineId"`
	Phase    string `json:"phase"`
	State    string `json:"state,omitempty"`
}

// TransitionResponse describes one transition in GET /transitions.
type TransitionResponse struct {
	Name  string `json:"name"`
	From  string `json:"from"`
	To    string `json:"to"`
	Armed bool   `json:"armed"`
}

// FireResponse is the body of POST /transitions/{name}.
type FireResponse struct {
	Transition string `json:"transition"`
	Outcome    string `json:"outcome"`
	State      string `json:"state,omitempty"`
	Error      string `json:"error,omitempty"`
}

type handler struct {
	machine *fsm.Machine
	logger  *slog.Logger
}

// NewRouter returns a chi router serving the machine. A nil logger uses slog.Default().
func NewRouter(machine *fsm.Machine, logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}

	h := &handler{machine: machine, logger: logger}

	r := chi.NewRouter()
	r.Get("/state", h.getState)
	r.Get("/transitions", h.listTransitions)
	r.Post("/transitions/{name}", h.fire)

	return r
}

func (h *handler) getState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StateResponse{
		Machine:  h.machine.Name(),
		EngineID: h.machine.ID(),
		Phase:    h.machine.Phase().String(),
		State:    currentName(h.machine),
	})
}

func (h *handler) listTransitions(w http.ResponseWriter, _ *http.Request) {
	transitions := h.machine.Transitions()

	out := make([]TransitionResponse, 0, len(transitions))
	for _, transition := range transitions {
		out = append(out, TransitionResponse{
			Name:  transition.Name(),
			From:  transition.From().Name(),
			To:    transition.To().Name(),
			Armed: transition.Armed(),
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *handler) fire(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	outcome, err := h.machine.Fire(r.Context(), name)
	if errors.Is(err, fsm.ErrUnknownTransition) {
		http.Error(w, "unknown transition", http.StatusNotFound)

		return
	}

	resp := FireResponse{
		Transition: name,
		Outcome:    string(outcome),
		State:      currentName(h.machine),
	}

	if err != nil {
		h.logger.ErrorContext(r.Context(), "Transition failed",
			"machine", h.machine.Name(),
			"transition", name,
			"error", err,
		)

		resp.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)

		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func currentName(machine *fsm.Machine) string {
	state := machine.CurrentState()
	if state == nil {
		return ""
	}

	return state.Name()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}
