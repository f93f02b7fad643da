package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-api/internal/authz"
	"crm-api/internal/dto"
	"crm-api/internal/response"
)

type errorBody struct {
	Error struct {
		Code    string                `json:"code"`
		Message string                `json:"message"`
		Fields  []response.FieldError `json:"fields"`
	} `json:"error"`
	Message string `json:"message"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestPipelineHandler_GetPipelineBoard(t *testing.T) {
	pipelineID := uuid.New()
	stageID := uuid.New()

	tests := []struct {
		name           string
		principal      *authz.Principal
		path           string
		mockService    func(*MockPipelineService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:      "board with default paging",
			principal: principal(authz.RoleSalesRep),
			path:      "/pipelines/" + pipelineID.String(),
			mockService: func(m *MockPipelineService) {
				m.FetchPipelineFunc = func(ctx context.Context, id uuid.UUID, page, pageSize int) (*dto.PipelineBoard, error) {
					if id != pipelineID || page != 1 || pageSize != 10 {
						return nil, errors.New("unexpected arguments")
					}
					return &dto.PipelineBoard{
						ID:   pipelineID,
						Name: "خط المبيعات",
						Stages: []dto.StageColumn{{
							StageResponse: dto.StageResponse{ID: stageID, Name: "تفاوض"},
							Opportunities: []dto.OpportunityResponse{},
						}},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:      "explicit page and limit",
			principal: principal(authz.RoleViewer),
			path:      "/pipelines/" + pipelineID.String() + "?page=3&limit=50",
			mockService: func(m *MockPipelineService) {
				m.FetchPipelineFunc = func(ctx context.Context, id uuid.UUID, page, pageSize int) (*dto.PipelineBoard, error) {
					if page != 3 || pageSize != 50 {
						return nil, errors.New("unexpected paging")
					}
					return &dto.PipelineBoard{ID: id}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing pipeline",
			principal:      principal(authz.RoleSalesRep),
			path:           "/pipelines/" + pipelineID.String(),
			expectedStatus: http.StatusNotFound,
			expectedCode:   response.ErrCodeNotFound,
		},
		{
			name:           "invalid id",
			principal:      principal(authz.RoleSalesRep),
			path:           "/pipelines/not-a-uuid",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   response.ErrCodeValidation,
		},
		{
			name:           "limit above maximum",
			principal:      principal(authz.RoleSalesRep),
			path:           "/pipelines/" + pipelineID.String() + "?limit=500",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   response.ErrCodeValidation,
		},
		{
			name:           "user without role",
			principal:      principal(""),
			path:           "/pipelines/" + pipelineID.String(),
			expectedStatus: http.StatusForbidden,
			expectedCode:   response.ErrCodeForbidden,
		},
		{
			name:           "unauthenticated",
			path:           "/pipelines/" + pipelineID.String(),
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   response.ErrCodeUnauthorized,
		},
		{
			name:      "service failure hides details",
			principal: principal(authz.RoleAdmin),
			path:      "/pipelines/" + pipelineID.String(),
			mockService: func(m *MockPipelineService) {
				m.FetchPipelineFunc = func(ctx context.Context, id uuid.UUID, page, pageSize int) (*dto.PipelineBoard, error) {
					return nil, response.NewInternalError("Failed to load pipeline", errors.New("pq: connection refused"))
				}
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   response.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockPipelineService{}
			if tt.mockService != nil {
				tt.mockService(svc)
			}
			h := NewPipelineHandler(svc, 10)
			r := newTestRouter(tt.principal)
			r.GET("/pipelines/:id", h.GetPipelineBoard)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedCode != "" {
				body := decodeError(t, w)
				assert.Equal(t, tt.expectedCode, body.Error.Code)
				assert.NotContains(t, w.Body.String(), "pq:")
			}
		})
	}
}

func TestPipelineHandler_GetStageOpportunities(t *testing.T) {
	pipelineID := uuid.New()
	stageID := uuid.New()
	svc := &MockPipelineService{
		FetchStagePageFunc: func(ctx context.Context, id uuid.UUID, page, pageSize int) (*dto.StagePage, error) {
			return &dto.StagePage{
				StageID:       id,
				PipelineID:    pipelineID,
				Page:          page,
				HasMore:       true,
				Opportunities: []dto.OpportunityResponse{{ID: uuid.New(), StageID: id}},
			}, nil
		},
	}
	h := NewPipelineHandler(svc, 0)
	r := newTestRouter(principal(authz.RoleSalesManager))
	r.GET("/pipelines/:id/stages/:stageId/opportunities", h.GetStageOpportunities)

	t.Run("stage of the pipeline", func(t *testing.T) {
		w := httptest.NewRecorder()
		path := "/pipelines/" + pipelineID.String() + "/stages/" + stageID.String() + "/opportunities?page=2"
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var body struct {
			Data dto.StagePage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, stageID, body.Data.StageID)
		assert.Equal(t, 2, body.Data.Page)
		assert.True(t, body.Data.HasMore)
		assert.Len(t, body.Data.Opportunities, 1)
	})

	t.Run("stage of another pipeline", func(t *testing.T) {
		w := httptest.NewRecorder()
		path := "/pipelines/" + uuid.NewString() + "/stages/" + stageID.String() + "/opportunities"
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, response.ErrCodeNotFound, decodeError(t, w).Error.Code)
		assert.NotContains(t, w.Body.String(), "opportunities\":[{")
	})
}

func TestPipelineHandler_ListPipelinesForbidden(t *testing.T) {
	svc := &MockPipelineService{
		ListPipelinesFunc: func(ctx context.Context, p authz.Principal) ([]dto.PipelineResponse, error) {
			return nil, response.NewForbiddenError("You do not have permission to view opportunities")
		},
	}
	r := newTestRouter(principal(""))
	r.GET("/pipelines", NewPipelineHandler(svc, 0).ListPipelines)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pipelines", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, response.LocalizedMessage(response.ErrCodeForbidden), body.Message)
}

func TestOpportunityHandler_MoveOpportunity(t *testing.T) {
	oppID := uuid.New()
	targetID := uuid.New()

	tests := []struct {
		name           string
		body           string
		mockService    func(*MockPipelineService)
		expectedStatus int
	}{
		{
			name:           "moved",
			body:           `{"stageId":"` + targetID.String() + `"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing stage",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "stage from another pipeline",
			body: `{"stageId":"` + targetID.String() + `"}`,
			mockService: func(m *MockPipelineService) {
				m.MoveOpportunityFunc = func(ctx context.Context, p authz.Principal, id, target uuid.UUID) (*dto.OpportunityResponse, error) {
					return nil, response.NewValidationError("Stage belongs to another pipeline", target.String())
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "not permitted",
			body: `{"stageId":"` + targetID.String() + `"}`,
			mockService: func(m *MockPipelineService) {
				m.MoveOpportunityFunc = func(ctx context.Context, p authz.Principal, id, target uuid.UUID) (*dto.OpportunityResponse, error) {
					return nil, response.NewForbiddenError("You may only move your own opportunities")
				}
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockPipelineService{}
			if tt.mockService != nil {
				tt.mockService(svc)
			}
			h := NewOpportunityHandler(&MockOpportunityService{}, svc)
			r := newTestRouter(principal(authz.RoleSalesRep))
			r.POST("/opportunities/:id/move", h.MoveOpportunity)

			req := httptest.NewRequest(http.MethodPost, "/opportunities/"+oppID.String()+"/move", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if w.Code == http.StatusOK {
				var body struct {
					Data dto.OpportunityResponse `json:"data"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, oppID, body.Data.ID)
				assert.Equal(t, targetID, body.Data.StageID)
			}
		})
	}
}
