package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/shelfmark/shelfmark/internal/errors"
	"github.com/shelfmark/shelfmark/internal/sync"
)

func (s *Server) registerSyncRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "triggerSync",
		Method:      http.MethodPost,
		Path:        "/api/v1/sync",
		Summary:     "Trigger sync",
		Description: "Requests a sync pass. Dropped requests (no session, pass in flight, cooldown) report skipped=true.",
		Tags:        []string{"Sync"},
	}, s.handleTriggerSync)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSyncStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/status",
		Summary:     "Get sync status",
		Description: "Returns the sync engine state",
		Tags:        []string{"Sync"},
	}, s.handleSyncStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSyncCapacity",
		Method:      http.MethodGet,
		Path:        "/api/v1/sync/capacity",
		Summary:     "Get sync capacity",
		Description: "Reports remote capacity usage for the current collection",
		Tags:        []string{"Sync"},
	}, s.handleSyncCapacity)

	huma.Register(s.api, huma.Operation{
		OperationID: "reportNetworkChange",
		Method:      http.MethodPost,
		Path:        "/api/v1/events/network",
		Summary:     "Report network change",
		Description: "The UI shell reports connectivity transitions here",
		Tags:        []string{"Sync"},
	}, s.handleNetworkEvent)

	huma.Register(s.api, huma.Operation{
		OperationID: "reportForeground",
		Method:      http.MethodPost,
		Path:        "/api/v1/events/foreground",
		Summary:     "Report app foregrounded",
		Description: "The UI shell reports returning to the foreground here",
		Tags:        []string{"Sync"},
	}, s.handleForegroundEvent)
}

// === DTOs ===

// TriggerSyncRequest is the request body for triggering a sync pass.
type TriggerSyncRequest struct {
	Kind string `json:"kind,omitempty" validate:"omitempty,oneof=full incremental" doc:"Pass kind (default incremental)"`
}

// TriggerSyncInput wraps the trigger sync request for Huma.
type TriggerSyncInput struct {
	Body TriggerSyncRequest
}

// SyncResultResponse reports the outcome of a sync pass.
type SyncResultResponse struct {
	Skipped    bool     `json:"skipped" doc:"True when the request was dropped without running"`
	Success    bool     `json:"success" doc:"True when the pass completed without errors"`
	Uploaded   int      `json:"uploaded" doc:"Records pushed to the remote store"`
	Downloaded int      `json:"downloaded" doc:"Records pulled from the remote store"`
	Deleted    int      `json:"deleted" doc:"Records deleted"`
	Conflicts  int      `json:"conflicts" doc:"Conflicts resolved"`
	Errors     []string `json:"errors,omitempty" doc:"Errors encountered during the pass"`
}

// SyncResultOutput wraps the sync result for Huma.
type SyncResultOutput struct {
	Body SyncResultResponse
}

// SyncStatusResponse reports the sync engine state.
type SyncStatusResponse struct {
	State       string `json:"state" doc:"Engine state: idle, syncing, error, or offline"`
	SyncEnabled bool   `json:"sync_enabled" doc:"Whether sync can run: signed in and online"`
	UserID      string `json:"user_id,omitempty" doc:"Signed-in user ID"`
}

// SyncStatusOutput wraps the sync status for Huma.
type SyncStatusOutput struct {
	Body SyncStatusResponse
}

// CapacityResponse reports remote capacity usage.
type CapacityResponse struct {
	Eligible  int  `json:"eligible" doc:"Records occupying remote slots"`
	Limit     int  `json:"limit,omitempty" doc:"Slot limit on the free tier"`
	Unlimited bool `json:"unlimited" doc:"True for premium accounts"`
	CanAdd    bool `json:"can_add" doc:"Whether another record would sync"`
}

// CapacityOutput wraps the capacity response for Huma.
type CapacityOutput struct {
	Body CapacityResponse
}

// NetworkEventRequest is the request body for reporting connectivity.
type NetworkEventRequest struct {
	Online bool `json:"online" doc:"Whether the device has network access"`
}

// NetworkEventInput wraps the network event request for Huma.
type NetworkEventInput struct {
	Body NetworkEventRequest
}

// === Handlers ===

func (s *Server) handleTriggerSync(ctx context.Context, input *TriggerSyncInput) (*SyncResultOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	kind := sync.KindIncremental
	if input.Body.Kind == string(sync.KindFull) {
		kind = sync.KindFull
	}

	result, err := s.services.Session.Sync(ctx, kind)
	if err != nil {
		if errors.Is(err, sync.ErrOffline) {
			return nil, domainerrors.Unavailable("network unavailable")
		}
		return nil, err
	}
	if result == nil {
		return &SyncResultOutput{Body: SyncResultResponse{Skipped: true}}, nil
	}

	return &SyncResultOutput{
		Body: SyncResultResponse{
			Success:    result.Success,
			Uploaded:   result.Uploaded,
			Downloaded: result.Downloaded,
			Deleted:    result.Deleted,
			Conflicts:  result.Conflicts,
			Errors:     result.Errors,
		},
	}, nil
}

func (s *Server) handleSyncStatus(_ context.Context, _ *struct{}) (*SyncStatusOutput, error) {
	return &SyncStatusOutput{
		Body: SyncStatusResponse{
			State:       string(s.services.Session.State()),
			SyncEnabled: s.services.Session.IsSyncEnabled(),
			UserID:      s.services.Session.UserID(),
		},
	}, nil
}

func (s *Server) handleSyncCapacity(ctx context.Context, _ *struct{}) (*CapacityOutput, error) {
	usage, err := s.services.Session.Capacity(ctx)
	if err != nil {
		return nil, err
	}

	return &CapacityOutput{
		Body: CapacityResponse{
			Eligible:  usage.Eligible,
			Limit:     usage.Limit,
			Unlimited: usage.Unlimited,
			CanAdd:    usage.CanAdd,
		},
	}, nil
}

func (s *Server) handleNetworkEvent(_ context.Context, input *NetworkEventInput) (*MessageOutput, error) {
	s.services.Bus.PublishNetworkChange(input.Body.Online)
	return &MessageOutput{Body: MessageResponse{Message: "Network state recorded"}}, nil
}

func (s *Server) handleForegroundEvent(_ context.Context, _ *struct{}) (*MessageOutput, error) {
	s.services.Bus.PublishForeground()
	return &MessageOutput{Body: MessageResponse{Message: "Foreground recorded"}}, nil
}
