package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"crm-api/internal/authz"
	"crm-api/internal/board"
	"crm-api/internal/dto"
	"crm-api/internal/metrics"
	"crm-api/internal/response"
)

// boardSource serves one pipeline from memory
type boardSource struct {
	mu         sync.Mutex
	pipelineID uuid.UUID
	stages     []dto.StageResponse
	placement  map[uuid.UUID]uuid.UUID
	moveErr    error
}

func newBoardSource() (*boardSource, uuid.UUID) {
	pipelineID := uuid.New()
	src := &boardSource{
		pipelineID: pipelineID,
		stages: []dto.StageResponse{
			{ID: uuid.New(), PipelineID: pipelineID, Name: "عميل محتمل", Position: 1, Probability: 10},
			{ID: uuid.New(), PipelineID: pipelineID, Name: "تفاوض", Position: 2, Probability: 75},
		},
		placement: make(map[uuid.UUID]uuid.UUID),
	}
	opp := uuid.New()
	src.placement[opp] = src.stages[0].ID
	return src, opp
}

func (s *boardSource) FetchPipeline(ctx context.Context, pipelineID uuid.UUID, page, pageSize int) (*dto.PipelineBoard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pipelineID != s.pipelineID {
		return nil, nil
	}
	pb := &dto.PipelineBoard{ID: s.pipelineID, Name: "خط المبيعات"}
	for _, st := range s.stages {
		col := dto.StageColumn{StageResponse: st, Opportunities: []dto.OpportunityResponse{}}
		for id, stageID := range s.placement {
			if stageID == st.ID {
				col.Opportunities = append(col.Opportunities, dto.OpportunityResponse{ID: id, Name: "صفقة", StageID: st.ID})
			}
		}
		pb.Stages = append(pb.Stages, col)
	}
	return pb, nil
}

func (s *boardSource) FetchStagePage(ctx context.Context, stageID uuid.UUID, page, pageSize int) (*dto.StagePage, error) {
	return &dto.StagePage{StageID: stageID, Page: page, Opportunities: []dto.OpportunityResponse{}}, nil
}

func (s *boardSource) MoveOpportunity(ctx context.Context, p authz.Principal, id, target uuid.UUID) (*dto.OpportunityResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.moveErr != nil {
		return nil, s.moveErr
	}
	s.placement[id] = target
	return &dto.OpportunityResponse{ID: id, Name: "صفقة", StageID: target}, nil
}

func startBoardServer(t *testing.T, src *boardSource, p *authz.Principal, m *metrics.Metrics) *httptest.Server {
	t.Helper()
	h := NewBoardWSHandler(src, 25, []string{"http://localhost:5173"}, m, zap.NewNop())
	r := newTestRouter(p)
	r.GET("/pipelines/:id/board/ws", h.HandleBoard)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, pipelineID uuid.UUID) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/pipelines/" + pipelineID.String() + "/board/ws"
}

// readUntil reads server messages until match returns true
func readUntil(t *testing.T, conn *websocket.Conn, match func(BoardServerMessage) bool) BoardServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg BoardServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func cardStage(view *board.View, id uuid.UUID) (uuid.UUID, bool) {
	for _, col := range view.Columns {
		for _, card := range col.Cards {
			if card.ID == id {
				return col.ID, card.Moving
			}
		}
	}
	return uuid.Nil, false
}

func TestBoardWSHandler_MoveFlow(t *testing.T) {
	src, oppID := newBoardSource()
	registry := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(registry, zap.NewNop())
	srv := startBoardServer(t, src, principal(authz.RoleAdmin), m)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, src.pipelineID), nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readUntil(t, conn, func(msg BoardServerMessage) bool { return msg.Type == msgSnapshot })
	require.NotNil(t, first.Board)
	assert.Equal(t, "خط المبيعات", first.Board.Name)
	stage, _ := cardStage(first.Board, oppID)
	assert.Equal(t, src.stages[0].ID, stage)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BoardSessionsActive))

	target := src.stages[1].ID
	require.NoError(t, conn.WriteJSON(BoardClientMessage{Type: msgDragStart, OpportunityID: &oppID}))
	require.NoError(t, conn.WriteJSON(BoardClientMessage{Type: msgDragEnd, OpportunityID: &oppID, StageID: &target}))

	// the drag result and the settled snapshot may arrive in either order
	var outcome string
	settled := false
	readUntil(t, conn, func(msg BoardServerMessage) bool {
		switch msg.Type {
		case msgDragResult:
			outcome = msg.Outcome
		case msgSnapshot:
			stage, moving := cardStage(msg.Board, oppID)
			settled = settled || (stage == target && !moving)
		}
		return outcome != "" && settled
	})
	assert.Equal(t, board.Started.String(), outcome)

	require.NoError(t, conn.WriteJSON(BoardClientMessage{Type: msgDragEnd, OpportunityID: &oppID, StageID: &target}))
	result := readUntil(t, conn, func(msg BoardServerMessage) bool { return msg.Type == msgDragResult })
	assert.Equal(t, board.SameStage.String(), result.Outcome)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.BoardSessionsActive) == 0
	}, 3*time.Second, 20*time.Millisecond)
}

func TestBoardWSHandler_FailedMoveRevertsWithNotice(t *testing.T) {
	src, oppID := newBoardSource()
	src.moveErr = response.NewInternalError("Failed to move opportunity", nil)
	srv := startBoardServer(t, src, principal(authz.RoleAdmin), metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop()))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, src.pipelineID), nil)
	require.NoError(t, err)
	defer conn.Close()
	readUntil(t, conn, func(msg BoardServerMessage) bool { return msg.Type == msgSnapshot })

	target := src.stages[1].ID
	require.NoError(t, conn.WriteJSON(BoardClientMessage{Type: msgDragEnd, OpportunityID: &oppID, StageID: &target}))

	notice := readUntil(t, conn, func(msg BoardServerMessage) bool { return msg.Type == msgNotice })
	require.NotNil(t, notice.Notice)
	assert.Equal(t, board.NoticeMoveFailed, notice.Notice.Kind)
	assert.Equal(t, board.MessageMoveFailed, notice.Notice.Message)

	require.NoError(t, conn.WriteJSON(BoardClientMessage{Type: msgRefresh}))
	snap := readUntil(t, conn, func(msg BoardServerMessage) bool {
		if msg.Type != msgSnapshot {
			return false
		}
		_, moving := cardStage(msg.Board, oppID)
		return !moving
	})
	stage, _ := cardStage(snap.Board, oppID)
	assert.Equal(t, src.stages[0].ID, stage)
}

func TestBoardWSHandler_InvalidMessages(t *testing.T) {
	src, _ := newBoardSource()
	srv := startBoardServer(t, src, principal(authz.RoleViewer), metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop()))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, src.pipelineID), nil)
	require.NoError(t, err)
	defer conn.Close()
	readUntil(t, conn, func(msg BoardServerMessage) bool { return msg.Type == msgSnapshot })

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	msg := readUntil(t, conn, func(msg BoardServerMessage) bool { return msg.Type == msgError })
	assert.Equal(t, response.ErrCodeValidation, msg.Code)

	require.NoError(t, conn.WriteJSON(BoardClientMessage{Type: msgLoadMore}))
	msg = readUntil(t, conn, func(msg BoardServerMessage) bool { return msg.Type == msgError })
	assert.Equal(t, "stageId is required", msg.Message)

	require.NoError(t, conn.WriteJSON(BoardClientMessage{Type: "rename"}))
	msg = readUntil(t, conn, func(msg BoardServerMessage) bool { return msg.Type == msgError })
	assert.Equal(t, "Unknown message type", msg.Message)
}

func TestBoardWSHandler_RejectsBeforeUpgrade(t *testing.T) {
	src, _ := newBoardSource()

	tests := []struct {
		name           string
		principal      *authz.Principal
		pipelineID     uuid.UUID
		origin         string
		expectedStatus int
	}{
		{name: "unknown pipeline", principal: principal(authz.RoleViewer), pipelineID: uuid.New(), expectedStatus: http.StatusNotFound},
		{name: "no role", principal: principal(""), pipelineID: src.pipelineID, expectedStatus: http.StatusForbidden},
		{name: "unauthenticated", pipelineID: src.pipelineID, expectedStatus: http.StatusUnauthorized},
		{name: "foreign origin", principal: principal(authz.RoleViewer), pipelineID: src.pipelineID, origin: "http://evil.example", expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := startBoardServer(t, src, tt.principal, metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop()))
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}

			conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, tt.pipelineID), header)
			if conn != nil {
				conn.Close()
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestBoardSession_CoalescesSnapshots(t *testing.T) {
	s := newBoardSession()

	s.BoardChanged(board.View{Version: 2})
	s.BoardChanged(board.View{Version: 1})
	s.Notice(board.Notice{Kind: board.NoticeDenied, Message: board.MessageMoveDenied})
	s.BoardChanged(board.View{Version: 3})

	out := s.drain()
	require.Len(t, out, 2)
	assert.Equal(t, msgSnapshot, out[0].Type)
	assert.Equal(t, uint64(3), out[0].Board.Version)
	assert.Equal(t, msgNotice, out[1].Type)

	// versions already delivered are dropped
	s.BoardChanged(board.View{Version: 3})
	assert.Empty(t, s.drain())

	for i := 0; i < maxQueuedMessages+5; i++ {
		s.push(errorMessage(response.ErrCodeValidation, "x"))
	}
	assert.Len(t, s.drain(), maxQueuedMessages)

	s.close()
	s.push(errorMessage(response.ErrCodeValidation, "after close"))
	assert.Empty(t, s.drain())
}
