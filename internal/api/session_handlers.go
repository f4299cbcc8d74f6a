package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "signIn",
		Method:      http.MethodPost,
		Path:        "/api/v1/session",
		Summary:     "Sign in",
		Description: "Stores a verified access token and starts the sync session",
		Tags:        []string{"Session"},
	}, s.handleSignIn)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/session",
		Summary:     "Get session",
		Description: "Returns the current session state",
		Tags:        []string{"Session"},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "signOut",
		Method:      http.MethodDelete,
		Path:        "/api/v1/session",
		Summary:     "Sign out",
		Description: "Ends the session. Local records are untouched.",
		Tags:        []string{"Session"},
	}, s.handleSignOut)
}

// === DTOs ===

// SignInRequest is the request body for signing in.
type SignInRequest struct {
	Token string `json:"token" validate:"required" doc:"Access token issued by the account service"`
}

// SignInInput wraps the sign in request for Huma.
type SignInInput struct {
	Body SignInRequest
}

// SessionResponse contains the current session state.
type SessionResponse struct {
	SignedIn bool   `json:"signed_in" doc:"Whether a session is active"`
	UserID   string `json:"user_id,omitempty" doc:"Signed-in user ID"`
	Email    string `json:"email,omitempty" doc:"Signed-in user email"`
	Premium  bool   `json:"premium,omitempty" doc:"Whether the account has unlimited sync capacity"`
}

// SessionOutput wraps the session response for Huma.
type SessionOutput struct {
	Body SessionResponse
}

// === Handlers ===

func (s *Server) handleSignIn(_ context.Context, input *SignInInput) (*SessionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	claims, err := s.services.Auth.SignIn(input.Body.Token)
	if err != nil {
		return nil, err
	}

	return &SessionOutput{
		Body: SessionResponse{
			SignedIn: true,
			UserID:   claims.UserID,
			Email:    claims.Email,
			Premium:  claims.Premium,
		},
	}, nil
}

func (s *Server) handleGetSession(_ context.Context, _ *struct{}) (*SessionOutput, error) {
	claims := s.services.Auth.Claims()
	if claims == nil {
		return &SessionOutput{Body: SessionResponse{SignedIn: false}}, nil
	}

	return &SessionOutput{
		Body: SessionResponse{
			SignedIn: true,
			UserID:   claims.UserID,
			Email:    claims.Email,
			Premium:  claims.Premium,
		},
	}, nil
}

func (s *Server) handleSignOut(_ context.Context, _ *struct{}) (*MessageOutput, error) {
	s.services.Auth.SignOut()
	return &MessageOutput{Body: MessageResponse{Message: "Signed out"}}, nil
}
