package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"crm-api/internal/authz"
	"crm-api/internal/board"
	"crm-api/internal/metrics"
	"crm-api/internal/middleware"
	"crm-api/internal/response"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// maxQueuedMessages bounds notices and errors waiting for the writer
	maxQueuedMessages = 64
)

// Client message types
const (
	msgDragStart = "drag_start"
	msgDragEnd   = "drag_end"
	msgLoadMore  = "load_more"
	msgRefresh   = "refresh"
)

// Server message types
const (
	msgSnapshot   = "snapshot"
	msgNotice     = "notice"
	msgDragResult = "drag_result"
	msgError      = "error"
)

// BoardClientMessage is sent by the browser over the board socket
type BoardClientMessage struct {
	Type          string     `json:"type"`
	OpportunityID *uuid.UUID `json:"opportunityId,omitempty"`
	StageID       *uuid.UUID `json:"stageId,omitempty"`
}

// BoardServerMessage is pushed to the browser
type BoardServerMessage struct {
	Type          string        `json:"type"`
	Board         *board.View   `json:"board,omitempty"`
	Notice        *board.Notice `json:"notice,omitempty"`
	Outcome       string        `json:"outcome,omitempty"`
	OpportunityID *uuid.UUID    `json:"opportunityId,omitempty"`
	Code          string        `json:"code,omitempty"`
	Message       string        `json:"message,omitempty"`
}

// BoardWSHandler runs one board controller per websocket connection
type BoardWSHandler struct {
	source   board.DataSource
	pageSize int
	metrics  *metrics.Metrics
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewBoardWSHandler creates a new BoardWSHandler. Browser origins are checked
// against allowedOrigins; requests without an Origin header are accepted.
func NewBoardWSHandler(source board.DataSource, pageSize int, allowedOrigins []string, m *metrics.Metrics, logger *zap.Logger) *BoardWSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoardWSHandler{
		source:   source,
		pageSize: pageSize,
		metrics:  m,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(origin, allowedOrigins)
			},
		},
	}
}

// HandleBoard godoc
// @Summary      Pipeline board websocket
// @Description  Streams board snapshots for one pipeline. Client messages: drag_start{opportunityId},
// @Description  drag_end{opportunityId,stageId?}, load_more{stageId}, refresh. Server messages:
// @Description  snapshot{board}, notice{notice}, drag_result{outcome,opportunityId}, error{code,message}.
// @Description  Snapshots carry a growing version; older ones can be dropped.
// @Tags         pipelines
// @Param        id    path  string true "Pipeline ID (UUID)"
// @Param        token query string true "JWT access token"
// @Success      101 {string} string "Switching Protocols"
// @Failure      401 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /pipelines/{id}/board/ws [get]
func (h *BoardWSHandler) HandleBoard(c *gin.Context) {
	pipelineID, ok := pathID(c, "id", "pipeline")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	if !requirePermission(c, p, authz.ActionView, authz.ResourceOpportunities) {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	session := newBoardSession()
	ctrl := board.NewController(h.source, pipelineID, p, session, h.pageSize, h.logger)

	// the first load happens before the upgrade so a missing pipeline is a plain 404
	if err := ctrl.Load(ctx); err != nil {
		ctrl.Close()
		handleServiceError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ctrl.Close()
		h.logger.Warn("Failed to upgrade board connection", zap.Error(err))
		return
	}

	logger := h.logger.With(
		zap.String("pipeline_id", pipelineID.String()),
		zap.String("user_id", p.UserID.String()),
	)
	logger.Info("Board websocket connected")
	h.metrics.BoardSessionOpened()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(conn, session)
	}()

	h.readPump(ctx, conn, ctrl, session, logger)

	ctrl.Close()
	ctrl.Wait()
	session.close()
	<-writerDone
	h.metrics.BoardSessionClosed()
	logger.Info("Board websocket disconnected")
}

func (h *BoardWSHandler) readPump(ctx context.Context, conn *websocket.Conn, ctrl *board.Controller, session *boardSession, logger *zap.Logger) {
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("Board websocket read error", zap.Error(err))
			}
			return
		}

		var msg BoardClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			session.push(errorMessage(response.ErrCodeValidation, "Invalid message"))
			continue
		}
		h.dispatch(ctx, ctrl, session, &msg, logger)
	}
}

func (h *BoardWSHandler) dispatch(ctx context.Context, ctrl *board.Controller, session *boardSession, msg *BoardClientMessage, logger *zap.Logger) {
	switch msg.Type {
	case msgDragStart:
		if msg.OpportunityID == nil {
			session.push(errorMessage(response.ErrCodeValidation, "opportunityId is required"))
			return
		}
		ctrl.OnDragStart(*msg.OpportunityID)

	case msgDragEnd:
		if msg.OpportunityID == nil {
			session.push(errorMessage(response.ErrCodeValidation, "opportunityId is required"))
			return
		}
		outcome := ctrl.OnDragEnd(ctx, *msg.OpportunityID, msg.StageID)
		session.push(BoardServerMessage{
			Type:          msgDragResult,
			Outcome:       outcome.String(),
			OpportunityID: msg.OpportunityID,
		})

	case msgLoadMore:
		if msg.StageID == nil {
			session.push(errorMessage(response.ErrCodeValidation, "stageId is required"))
			return
		}
		if err := ctrl.LoadMore(ctx, *msg.StageID); err != nil {
			session.push(serviceErrorMessage(err))
		}

	case msgRefresh:
		if err := ctrl.Load(ctx); err != nil {
			session.push(serviceErrorMessage(err))
		}

	default:
		logger.Debug("Unknown board message type", zap.String("type", msg.Type))
		session.push(errorMessage(response.ErrCodeValidation, "Unknown message type"))
	}
}

func (h *BoardWSHandler) writePump(conn *websocket.Conn, session *boardSession) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-session.wake:
			for _, msg := range session.drain() {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-session.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// boardSession is the board.Listener of one connection. Snapshots are coalesced
// to the newest version; other messages queue up to maxQueuedMessages.
type boardSession struct {
	mu     sync.Mutex
	view   *board.View
	sent   uint64
	queue  []BoardServerMessage
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

func newBoardSession() *boardSession {
	return &boardSession{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// BoardChanged keeps the newest snapshot
func (s *boardSession) BoardChanged(view board.View) {
	s.mu.Lock()
	if view.Version <= s.sent || (s.view != nil && view.Version <= s.view.Version) {
		s.mu.Unlock()
		return
	}
	s.view = &view
	s.mu.Unlock()
	s.signal()
}

// Notice queues a user notice
func (s *boardSession) Notice(notice board.Notice) {
	id := notice.OpportunityID
	s.push(BoardServerMessage{Type: msgNotice, Notice: &notice, OpportunityID: &id})
}

func (s *boardSession) push(msg BoardServerMessage) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if len(s.queue) >= maxQueuedMessages {
		s.queue = s.queue[1:]
	}
	s.queue = append(s.queue, msg)
	s.mu.Unlock()
	s.signal()
}

func (s *boardSession) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// drain returns the pending snapshot first, then queued messages
func (s *boardSession) drain() []BoardServerMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]BoardServerMessage, 0, len(s.queue)+1)
	if s.view != nil {
		out = append(out, BoardServerMessage{Type: msgSnapshot, Board: s.view})
		s.sent = s.view.Version
		s.view = nil
	}
	out = append(out, s.queue...)
	s.queue = nil
	return out
}

func (s *boardSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

func errorMessage(code, message string) BoardServerMessage {
	return BoardServerMessage{Type: msgError, Code: code, Message: message}
}

func serviceErrorMessage(err error) BoardServerMessage {
	var appErr *response.AppError
	if errors.As(err, &appErr) && mapErrorCodeToHTTPStatus(appErr.Code) != http.StatusInternalServerError {
		return errorMessage(appErr.Code, appErr.Message)
	}
	return errorMessage(response.ErrCodeInternal, response.LocalizedMessage(response.ErrCodeInternal))
}
