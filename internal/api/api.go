package api

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"whales/internal/logging"
	"whales/internal/opponent"
)

// Service answers API requests from the opponent registry.
type Service struct {
	models *opponent.Registry
}

// NewService creates a service backed by models.
func NewService(models *opponent.Registry) *Service {
	return &Service{models: models}
}

// Query dispatches one request. Failures are reported in Response.Error.
func (s *Service) Query(ctx context.Context, req Request) Response {
	switch req.Command {
	case "":
		return errorResponse("no command specified")
	case CommandListModels:
		return Response{Models: s.catalog()}
	case CommandGetMove:
		if req.Model == nil {
			return errorResponse("missing required parameter 'model'")
		}
		if req.PGN == nil {
			return errorResponse("missing required parameter 'pgn'")
		}
		pgn, err := s.models.Run(ctx, *req.Model, *req.PGN)
		switch {
		case errors.Is(err, opponent.ErrNoSuchModel):
			return errorResponse(fmt.Sprintf("unknown model '%s'", *req.Model))
		case errors.Is(err, opponent.ErrInvalidPGN):
			return errorResponse("invalid PGN")
		case errors.Is(err, opponent.ErrGameOver):
			return errorResponse("game is over")
		case err != nil:
			logging.L().Error("get_move failed", zap.String("model", *req.Model), zap.Error(err))
			return errorResponse("internal error")
		}
		return Response{PGN: &pgn}
	default:
		return errorResponse(fmt.Sprintf("unknown command '%s'", req.Command))
	}
}

// ListModels returns the catalog.
func (s *Service) ListModels(ctx context.Context) ([]ModelInfo, error) {
	resp := s.Query(ctx, ListModelsRequest())
	if resp.Error != nil {
		return nil, &Error{Message: *resp.Error}
	}
	return resp.Models, nil
}

// GetMove returns pgn extended by the model's move.
func (s *Service) GetMove(ctx context.Context, model, pgn string) (string, error) {
	resp := s.Query(ctx, GetMoveRequest(model, pgn))
	if resp.Error != nil {
		return "", &Error{Message: *resp.Error}
	}
	if resp.PGN == nil {
		return "", &Error{Message: "empty reply"}
	}
	return *resp.PGN, nil
}

func (s *Service) catalog() []ModelInfo {
	infos := s.models.Catalog()
	out := make([]ModelInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, ModelInfo{
			InternalName: info.InternalName,
			DisplayName:  info.DisplayName,
			Description:  info.Description,
		})
	}
	return out
}

// InvalidJSON is the reply to a body that is not a JSON object.
func InvalidJSON() Response { return errorResponse("invalid JSON") }

func errorResponse(msg string) Response {
	return Response{Error: &msg}
}
