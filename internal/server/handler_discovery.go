package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "batchsim API",
		Version:     "v1",
		Description: "Batch job scheduling simulator: run workloads and browse archived runs",
		Endpoints: []endpointInfo{
			{"/api/v1/runs", []string{"GET", "POST"}, "List archived runs. POST a workload (YAML or JSON) to simulate and archive it"},
			{"/api/v1/runs/{id}", []string{"GET", "DELETE"}, "Single run with summary and per-process results"},
			{"/api/v1/runs/{id}/events", []string{"GET"}, "Trace events of a run; ?pid= filters by process"},
			{"/api/v1/runs/{id}/processes", []string{"GET"}, "Per-process results in completion order"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
