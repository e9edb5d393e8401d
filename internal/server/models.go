package server

import (
	"time"

	"devmanager/internal/config"
	"devmanager/internal/lifecycle"
	"devmanager/internal/monitor"
	"devmanager/internal/types"
)

// HealthResponse is returned by the liveness endpoint
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version" example:"0.1.0"`
	Uptime  string `json:"uptime" example:"2h30m15s"`
}

// ServiceView is one service as the API presents it
type ServiceView struct {
	ID           string               `json:"id" example:"supabase"`
	Name         string               `json:"name" example:"supabase"`
	DisplayName  string               `json:"display_name" example:"Supabase"`
	Type         config.Kind          `json:"type" example:"http"`
	Icon         string               `json:"icon,omitempty"`
	Description  string               `json:"description,omitempty"`
	Critical     bool                 `json:"critical"`
	StartupOrder int                  `json:"startup_order"`
	Profile      string               `json:"colima_profile,omitempty"`
	Status       *types.ServiceStatus `json:"status,omitempty"`
	StatusEmoji  string               `json:"status_emoji" example:"🟢"`
	Details      string               `json:"details,omitempty" example:"12ms"`
}

// StatusResponse is the monitor snapshot
type StatusResponse struct {
	Overall      types.OverallStatus `json:"overall" example:"healthy"`
	OverallLabel string              `json:"overall_label" example:"🟢 Healthy"`
	LastUpdate   *time.Time          `json:"last_update,omitempty"`
	State        monitor.State       `json:"state" example:"polling"`
	Pass         uint64              `json:"pass" example:"42"`
	Services     []ServiceView       `json:"services"`
}

// ServicesResponse lists the monitored services
type ServicesResponse struct {
	Services []ServiceView `json:"services"`
	Total    int           `json:"total" example:"6"`
}

// ActionResponse reports a completed lifecycle command
type ActionResponse struct {
	Service    string           `json:"service" example:"supabase"`
	Action     lifecycle.Action `json:"action" example:"restart"`
	ExitCode   int              `json:"exit_code" example:"0"`
	Output     string           `json:"output,omitempty"`
	DurationMs int64            `json:"duration_ms" example:"1520"`
	Current    *ServiceView     `json:"current,omitempty"`
}

// StreamMessage is sent over the WebSocket stream
type StreamMessage struct {
	Type   string          `json:"type"` // 'snapshot', 'pong'
	Status *StatusResponse `json:"status,omitempty"`
}

// ClientMessage is received over the WebSocket stream
type ClientMessage struct {
	Type string `json:"type"` // 'ping', 'poll'
}

func newServiceView(item monitor.Item) ServiceView {
	svc := item.Service
	view := ServiceView{
		ID:           svc.ID,
		Name:         svc.Name,
		DisplayName:  svc.Label(),
		Type:         svc.Type,
		Icon:         svc.Icon,
		Description:  svc.Description,
		Critical:     svc.Critical,
		StartupOrder: svc.StartupOrder,
		Profile:      svc.ColimaProfile,
		StatusEmoji:  types.IconUnknown.Emoji(),
	}
	if item.Status != nil {
		status := item.Status.Clone()
		view.Status = &status
		view.StatusEmoji = status.Icon.Emoji()
		view.Details = status.Details()
	}
	return view
}

func newServiceViews(items []monitor.Item) []ServiceView {
	views := make([]ServiceView, len(items))
	for i, item := range items {
		views[i] = newServiceView(item)
	}
	return views
}

func newStatusResponse(snap monitor.Snapshot) StatusResponse {
	resp := StatusResponse{
		Overall:      snap.Overall,
		OverallLabel: snap.Overall.Label(),
		State:        snap.State,
		Pass:         snap.Pass,
		Services:     newServiceViews(snap.Items),
	}
	if !snap.LastUpdate.IsZero() {
		t := snap.LastUpdate
		resp.LastUpdate = &t
	}
	return resp
}
