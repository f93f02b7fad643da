// Package board hosts the pipeline board state machine: optimistic drag-drop moves
// with rollback and per-stage pagination. It has no transport dependency.
package board

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"crm-api/internal/authz"
	"crm-api/internal/dto"
	"crm-api/internal/response"
)

// DefaultPageSize is the number of cards fetched per stage page
const DefaultPageSize = 25

// Notice messages shown to the user
const (
	MessageMoveDenied = "غير مسموح لك بنقل هذه الفرصة"
	MessageMoveFailed = "فشل نقل الصفقة؛ تم التراجع"
)

// DataSource is the pipeline data access the board depends on
type DataSource interface {
	FetchPipeline(ctx context.Context, pipelineID uuid.UUID, page, pageSize int) (*dto.PipelineBoard, error)
	FetchStagePage(ctx context.Context, stageID uuid.UUID, page, pageSize int) (*dto.StagePage, error)
	MoveOpportunity(ctx context.Context, p authz.Principal, opportunityID, targetStageID uuid.UUID) (*dto.OpportunityResponse, error)
}

// Listener receives rendered snapshots and user notices. It is called without the
// controller lock held and must not block.
type Listener interface {
	BoardChanged(view View)
	Notice(notice Notice)
}

// NoticeKind classifies a notice
type NoticeKind string

const (
	NoticeDenied     NoticeKind = "denied"
	NoticeMoveFailed NoticeKind = "move_failed"
)

// Notice is a non-blocking message for the user
type Notice struct {
	Kind          NoticeKind `json:"kind"`
	Message       string     `json:"message"`
	OpportunityID uuid.UUID  `json:"opportunityId"`
}

// Outcome is the result of a drag end
type Outcome int

const (
	Ignored Outcome = iota
	SameStage
	Denied
	Started
)

func (o Outcome) String() string {
	switch o {
	case SameStage:
		return "same_stage"
	case Denied:
		return "denied"
	case Started:
		return "started"
	default:
		return "ignored"
	}
}

// CardState is the lifecycle state of one card
type CardState int

const (
	Unknown CardState = iota
	Idle
	Moving
)

// MoveResult is the settlement of a move request
type MoveResult struct {
	Opportunity *dto.OpportunityResponse
	Err         error
}

// Card is a rendered opportunity
type Card struct {
	dto.OpportunityResponse
	Moving    bool `json:"moving"`
	Draggable bool `json:"draggable"`
}

// Column is a rendered stage
type Column struct {
	dto.StageResponse
	Cards    []Card `json:"cards"`
	Page     int    `json:"page"`
	HasMore  bool   `json:"hasMore"`
	Degraded bool   `json:"degraded"`
}

// View is a rendered board. Version grows with every change so receivers can drop stale snapshots.
type View struct {
	PipelineID uuid.UUID `json:"pipelineId"`
	Name       string    `json:"name"`
	Version    uint64    `json:"version"`
	Columns    []Column  `json:"columns"`
}

type stageState struct {
	stage    dto.StageResponse
	cards    []dto.OpportunityResponse
	page     int
	hasMore  bool
	degraded bool
	loading  bool
}

// Controller owns the board state of one viewer. All state sits behind mu; data
// source calls are made without holding it.
type Controller struct {
	source     DataSource
	principal  authz.Principal
	listener   Listener
	logger     *zap.Logger
	pipelineID uuid.UUID
	pageSize   int

	mu        sync.Mutex
	name      string
	stages    []*stageState
	byID      map[uuid.UUID]*stageState
	intents   map[uuid.UUID]Intent
	dragging  uuid.UUID
	epoch     uint64
	nextToken uint64
	version   uint64
	closed    bool

	moves sync.WaitGroup
}

// NewController creates a board controller. A pageSize below 1 uses DefaultPageSize.
func NewController(source DataSource, pipelineID uuid.UUID, principal authz.Principal, listener Listener, pageSize int, logger *zap.Logger) *Controller {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		source:     source,
		principal:  principal,
		listener:   listener,
		logger:     logger,
		pipelineID: pipelineID,
		pageSize:   pageSize,
		byID:       make(map[uuid.UUID]*stageState),
		intents:    make(map[uuid.UUID]Intent),
	}
}

// Load fetches page 1 of every stage and replaces the accumulated lists.
// Page fetches still in flight from an earlier load are discarded.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()

	pb, err := c.source.FetchPipeline(ctx, c.pipelineID, 1, c.pageSize)

	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if pb == nil {
		c.mu.Unlock()
		return response.NewNotFoundError("Pipeline not found", c.pipelineID.String())
	}

	// cards with a move in flight survive the reload even when page 1 no longer holds them
	inFlight := make(map[uuid.UUID]dto.OpportunityResponse, len(c.intents))
	for id := range c.intents {
		if _, card, ok := c.findLocked(id); ok {
			inFlight[id] = card
		}
	}

	c.name = pb.Name
	c.stages = make([]*stageState, 0, len(pb.Stages))
	c.byID = make(map[uuid.UUID]*stageState, len(pb.Stages))
	for _, col := range pb.Stages {
		st := &stageState{
			stage:    col.StageResponse,
			cards:    append([]dto.OpportunityResponse(nil), col.Opportunities...),
			page:     1,
			hasMore:  len(col.Opportunities) == c.pageSize,
			degraded: col.Degraded,
		}
		c.stages = append(c.stages, st)
		c.byID[st.stage.ID] = st
	}
	c.carryInFlightLocked(inFlight)
	view := c.changedLocked()
	c.mu.Unlock()

	c.listener.BoardChanged(view)
	return nil
}

// carryInFlightLocked puts moving cards missing from the fresh pages back under
// their origin stage, or their target when the origin is gone.
func (c *Controller) carryInFlightLocked(cards map[uuid.UUID]dto.OpportunityResponse) {
	present := c.cardIDsLocked()
	for id, card := range cards {
		if _, ok := present[id]; ok {
			continue
		}
		intent := c.intents[id]
		st, ok := c.byID[intent.From]
		if !ok {
			st, ok = c.byID[intent.To]
		}
		if !ok {
			delete(c.intents, id)
			continue
		}
		st.cards = append(st.cards, card)
	}
}

// LoadMore appends the next page of one stage. It is a no-op when the stage is
// exhausted or already loading.
func (c *Controller) LoadMore(ctx context.Context, stageID uuid.UUID) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	st, ok := c.byID[stageID]
	if !ok {
		c.mu.Unlock()
		return response.NewNotFoundError("Stage not found", stageID.String())
	}
	if st.loading || !st.hasMore {
		c.mu.Unlock()
		return nil
	}
	st.loading = true
	page := st.page + 1
	epoch := c.epoch
	c.mu.Unlock()

	sp, err := c.source.FetchStagePage(ctx, stageID, page, c.pageSize)

	c.mu.Lock()
	if c.closed || epoch != c.epoch {
		c.mu.Unlock()
		return nil
	}
	st.loading = false
	if err != nil {
		c.mu.Unlock()
		return err
	}

	var fetched []dto.OpportunityResponse
	if sp != nil {
		fetched = sp.Opportunities
	}
	seen := c.cardIDsLocked()
	for _, card := range fetched {
		if _, dup := seen[card.ID]; dup {
			continue
		}
		seen[card.ID] = struct{}{}
		st.cards = append(st.cards, card)
	}
	st.page = page
	st.hasMore = len(fetched) == c.pageSize
	view := c.changedLocked()
	c.mu.Unlock()

	c.listener.BoardChanged(view)
	return nil
}

// OnDragStart captures the dragged card. It does not change state.
func (c *Controller) OnDragStart(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dragging = id
}

// Dragging returns the card captured by the last drag start
func (c *Controller) Dragging() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// OnDragEnd handles a drop over target. A nil target means the card was dropped
// outside any stage. When the move starts, the card renders under target at once
// and the move request runs in the background.
func (c *Controller) OnDragEnd(ctx context.Context, id uuid.UUID, target *uuid.UUID) Outcome {
	c.mu.Lock()
	c.dragging = uuid.Nil
	if c.closed || target == nil {
		c.mu.Unlock()
		return Ignored
	}
	if _, ok := c.byID[*target]; !ok {
		c.mu.Unlock()
		return Ignored
	}
	from, card, ok := c.findLocked(id)
	if !ok {
		c.mu.Unlock()
		return Ignored
	}
	if _, moving := c.intents[id]; moving {
		c.mu.Unlock()
		return Ignored
	}
	if from == *target {
		c.mu.Unlock()
		return SameStage
	}
	if !authz.Can(c.principal, authz.ActionUpdate, authz.ResourceOpportunities, authz.RecordOf(&card)) {
		c.mu.Unlock()
		c.listener.Notice(Notice{Kind: NoticeDenied, Message: MessageMoveDenied, OpportunityID: id})
		return Denied
	}

	c.nextToken++
	token := c.nextToken
	c.intents[id] = Intent{From: from, To: *target, token: token}
	view := c.changedLocked()
	c.moves.Add(1)
	c.mu.Unlock()

	c.listener.BoardChanged(view)

	moveCtx := context.WithoutCancel(ctx)
	go func(to uuid.UUID) {
		defer c.moves.Done()
		row, err := c.source.MoveOpportunity(moveCtx, c.principal, id, to)
		c.OnMoveSettled(moveCtx, id, token, MoveResult{Opportunity: row, Err: err})
	}(*target)

	return Started
}

// OnMoveSettled resolves the move identified by id and token. Success applies the
// server's row before clearing the intent, then reloads page 1. Failure clears the
// intent, which reverts the card, and emits one notice. Stale settlements are dropped.
func (c *Controller) OnMoveSettled(ctx context.Context, id uuid.UUID, token uint64, result MoveResult) {
	c.mu.Lock()
	intent, ok := c.intents[id]
	if c.closed || !ok || intent.token != token {
		c.mu.Unlock()
		return
	}

	if result.Err != nil {
		delete(c.intents, id)
		view := c.changedLocked()
		c.mu.Unlock()

		c.logger.Warn("Board move failed, reverted",
			zap.String("opportunity_id", id.String()),
			zap.String("from_stage_id", intent.From.String()),
			zap.String("to_stage_id", intent.To.String()),
			zap.Error(result.Err),
		)
		c.listener.BoardChanged(view)
		c.listener.Notice(Notice{Kind: NoticeMoveFailed, Message: MessageMoveFailed, OpportunityID: id})
		return
	}

	if result.Opportunity != nil {
		c.applyRowLocked(*result.Opportunity)
	}
	delete(c.intents, id)
	view := c.changedLocked()
	c.mu.Unlock()

	c.listener.BoardChanged(view)

	if err := c.Load(ctx); err != nil {
		c.logger.Warn("Board refresh after move failed",
			zap.String("pipeline_id", c.pipelineID.String()),
			zap.Error(err),
		)
	}
}

// CanDrag reports whether the card may be picked up: the principal may update it
// and no move for it is in flight.
func (c *Controller) CanDrag(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, card, ok := c.findLocked(id)
	if !ok {
		return false
	}
	return c.draggableLocked(card)
}

// State returns the lifecycle state of a card
func (c *Controller) State(id uuid.UUID) CardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, _, ok := c.findLocked(id); !ok {
		return Unknown
	}
	if _, moving := c.intents[id]; moving {
		return Moving
	}
	return Idle
}

// View renders the current board
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Close stops the controller. Later settlements and page results are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Wait blocks until every started move has settled
func (c *Controller) Wait() {
	c.moves.Wait()
}

func (c *Controller) findLocked(id uuid.UUID) (uuid.UUID, dto.OpportunityResponse, bool) {
	for _, st := range c.stages {
		for _, card := range st.cards {
			if card.ID == id {
				return st.stage.ID, card, true
			}
		}
	}
	return uuid.Nil, dto.OpportunityResponse{}, false
}

func (c *Controller) cardIDsLocked() map[uuid.UUID]struct{} {
	ids := make(map[uuid.UUID]struct{})
	for _, st := range c.stages {
		for _, card := range st.cards {
			ids[card.ID] = struct{}{}
		}
	}
	return ids
}

// applyRowLocked moves the server's row into its authoritative stage, keeping
// newest-first order. A row for a stage not on the board is dropped.
func (c *Controller) applyRowLocked(row dto.OpportunityResponse) {
	for _, st := range c.stages {
		for i, card := range st.cards {
			if card.ID == row.ID {
				st.cards = append(st.cards[:i:i], st.cards[i+1:]...)
				break
			}
		}
	}
	st, ok := c.byID[row.StageID]
	if !ok {
		return
	}
	at := len(st.cards)
	for i, card := range st.cards {
		if row.CreatedAt.After(card.CreatedAt) {
			at = i
			break
		}
	}
	cards := make([]dto.OpportunityResponse, 0, len(st.cards)+1)
	cards = append(cards, st.cards[:at]...)
	cards = append(cards, row)
	cards = append(cards, st.cards[at:]...)
	st.cards = cards
}

func (c *Controller) draggableLocked(card dto.OpportunityResponse) bool {
	if _, moving := c.intents[card.ID]; moving {
		return false
	}
	return authz.Can(c.principal, authz.ActionUpdate, authz.ResourceOpportunities, authz.RecordOf(&card))
}

func (c *Controller) changedLocked() View {
	c.version++
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	base := make(map[uuid.UUID][]dto.OpportunityResponse, len(c.stages))
	for _, st := range c.stages {
		base[st.stage.ID] = st.cards
	}

	view := View{
		PipelineID: c.pipelineID,
		Name:       c.name,
		Version:    c.version,
		Columns:    make([]Column, 0, len(c.stages)),
	}
	for _, st := range c.stages {
		rendered := RenderStage(st.stage.ID, base, c.intents)
		cards := make([]Card, 0, len(rendered))
		for _, o := range rendered {
			_, moving := c.intents[o.ID]
			cards = append(cards, Card{
				OpportunityResponse: o,
				Moving:              moving,
				Draggable:           c.draggableLocked(o),
			})
		}
		view.Columns = append(view.Columns, Column{
			StageResponse: st.stage,
			Cards:         cards,
			Page:          st.page,
			HasMore:       st.hasMore,
			Degraded:      st.degraded,
		})
	}
	return view
}
