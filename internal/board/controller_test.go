package board

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"crm-api/internal/authz"
	"crm-api/internal/dto"
	"crm-api/internal/response"
)

var manager = authz.Principal{UserID: uuid.New(), Role: authz.RoleSalesManager}

func newLoadedController(t *testing.T, src *fakeSource, p authz.Principal, pageSize int) (*Controller, *recordingListener) {
	t.Helper()
	l := &recordingListener{}
	c := NewController(src, src.pipelineID, p, l, pageSize, zap.NewNop())
	require.NoError(t, c.Load(context.Background()))
	return c, l
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestController_LoadOrdersColumnsByPosition(t *testing.T) {
	src := newFakeSource(3)
	src.addCards(0, 2, nil)
	src.failing[src.stageID(1)] = true
	src.addCards(2, 1, nil)

	c, l := newLoadedController(t, src, manager, 0)
	view := c.View()

	assert.Equal(t, "Sales", view.Name)
	require.Len(t, view.Columns, 3)
	for i, col := range view.Columns {
		assert.Equal(t, i, col.Position)
		assert.Equal(t, 1, col.Page)
	}
	assert.Len(t, view.Columns[0].Cards, 2)
	assert.True(t, view.Columns[1].Degraded)
	assert.Empty(t, view.Columns[1].Cards)
	assert.Len(t, view.Columns[2].Cards, 1)
	assert.Equal(t, 1, l.ViewCount())
}

func TestController_LoadAbsentPipeline(t *testing.T) {
	src := newFakeSource(1)
	src.absent = true
	c := NewController(src, src.pipelineID, manager, &recordingListener{}, 0, zap.NewNop())

	err := c.Load(context.Background())
	var appErr *response.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, response.ErrCodeNotFound, appErr.Code)
}

func TestController_LoadFailureKeepsPreviousBoard(t *testing.T) {
	src := newFakeSource(2)
	src.addCards(0, 3, nil)
	c, _ := newLoadedController(t, src, manager, 0)

	src.fetchErr = errors.New("connection refused")
	require.Error(t, c.Load(context.Background()))
	assert.Len(t, c.View().Columns[0].Cards, 3)
}

func TestController_PaginationExhaustion(t *testing.T) {
	src := newFakeSource(2)
	src.addCards(0, 30, nil)
	src.addCards(1, 24, nil)

	c, _ := newLoadedController(t, src, manager, DefaultPageSize)
	view := c.View()
	assert.Len(t, view.Columns[0].Cards, 25)
	assert.True(t, view.Columns[0].HasMore)
	assert.Len(t, view.Columns[1].Cards, 24)
	assert.False(t, view.Columns[1].HasMore)

	require.NoError(t, c.LoadMore(context.Background(), src.stageID(0)))
	view = c.View()
	assert.Len(t, view.Columns[0].Cards, 30)
	assert.False(t, view.Columns[0].HasMore)
	assert.Equal(t, 2, view.Columns[0].Page)
	assert.Len(t, view.Columns[1].Cards, 24, "other stages are untouched")

	_, pages, _ := src.counts()
	require.NoError(t, c.LoadMore(context.Background(), src.stageID(0)))
	_, after, _ := src.counts()
	assert.Equal(t, pages, after, "exhausted stage is not fetched again")

	var appErr *response.AppError
	require.ErrorAs(t, c.LoadMore(context.Background(), uuid.New()), &appErr)
	assert.Equal(t, response.ErrCodeNotFound, appErr.Code)
}

func TestController_LoadMoreSkipsDuplicates(t *testing.T) {
	src := newFakeSource(1)
	initial := src.addCards(0, 4, nil)
	c, _ := newLoadedController(t, src, manager, 2)

	// a newer card shifts page 2 by one, so page 2 repeats the last card of page 1
	src.mu.Lock()
	src.insert(dto.OpportunityResponse{ID: uuid.New(), StageID: src.stageID(0), CreatedAt: initial[0].CreatedAt.Add(time.Hour)})
	src.mu.Unlock()

	require.NoError(t, c.LoadMore(context.Background(), src.stageID(0)))
	cards := c.View().Columns[0].Cards
	require.Len(t, cards, 3)
	assert.Equal(t, initial[0].ID, cards[0].ID)
	assert.Equal(t, initial[1].ID, cards[1].ID)
	assert.Equal(t, initial[2].ID, cards[2].ID)
}

func TestController_LoadMoreOneInFlightPerStage(t *testing.T) {
	src := newFakeSource(1)
	src.addCards(0, 60, nil)
	c, _ := newLoadedController(t, src, manager, 0)

	src.pageStarted = make(chan struct{}, 1)
	src.pageGate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- c.LoadMore(context.Background(), src.stageID(0)) }()
	<-src.pageStarted

	require.NoError(t, c.LoadMore(context.Background(), src.stageID(0)), "second request is a no-op")
	close(src.pageGate)
	require.NoError(t, <-done)

	_, pages, _ := src.counts()
	assert.Equal(t, 1, pages)
	assert.Len(t, c.View().Columns[0].Cards, 50)
}

func TestController_StaleLoadMoreDiscardedAfterReload(t *testing.T) {
	src := newFakeSource(1)
	src.addCards(0, 30, nil)
	c, _ := newLoadedController(t, src, manager, 0)

	src.pageStarted = make(chan struct{}, 1)
	src.pageGate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- c.LoadMore(context.Background(), src.stageID(0)) }()
	<-src.pageStarted

	require.NoError(t, c.Load(context.Background()))
	close(src.pageGate)
	require.NoError(t, <-done)

	col := c.View().Columns[0]
	assert.Equal(t, 1, col.Page)
	assert.Len(t, col.Cards, 25)
}

func TestController_OptimisticMoveSuccess(t *testing.T) {
	src := newFakeSource(2)
	moved := src.addCards(0, 2, nil)[1]
	c, l := newLoadedController(t, src, manager, 0)
	src.moveGate = make(chan struct{})

	c.OnDragStart(moved.ID)
	assert.Equal(t, moved.ID, c.Dragging())

	outcome := c.OnDragEnd(context.Background(), moved.ID, ptr(src.stageID(1)))
	require.Equal(t, Started, outcome)
	assert.Equal(t, uuid.Nil, c.Dragging())

	view := c.View()
	assert.Equal(t, []uuid.UUID{src.stageID(1)}, columnsContaining(view, moved.ID), "renders under the target at once")
	assert.True(t, view.Columns[1].Cards[0].Moving)
	assert.False(t, view.Columns[1].Cards[0].Draggable)
	assert.Equal(t, Moving, c.State(moved.ID))
	assert.False(t, c.CanDrag(moved.ID))

	close(src.moveGate)
	c.Wait()

	view = c.View()
	assert.Equal(t, []uuid.UUID{src.stageID(1)}, columnsContaining(view, moved.ID))
	assert.Equal(t, Idle, c.State(moved.ID))
	assert.True(t, c.CanDrag(moved.ID))
	assert.Equal(t, 10, view.Columns[1].Cards[0].Probability, "server probability is applied")
	assert.Empty(t, l.Notices())

	fetches, _, moves := src.counts()
	assert.Equal(t, 1, moves)
	assert.Equal(t, 2, fetches, "success refreshes the board")
}

func TestController_NoFlickerBackOnSuccess(t *testing.T) {
	src := newFakeSource(2)
	moved := src.addCards(0, 1, nil)[0]
	c, l := newLoadedController(t, src, manager, 0)
	src.moveGate = make(chan struct{})

	require.Equal(t, Started, c.OnDragEnd(context.Background(), moved.ID, ptr(src.stageID(1))))
	close(src.moveGate)
	c.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, view := range l.views[1:] {
		assert.Equal(t, []uuid.UUID{src.stageID(1)}, columnsContaining(view, moved.ID), "version %d", view.Version)
	}
}

func TestController_OptimisticMoveFailureReverts(t *testing.T) {
	src := newFakeSource(2)
	moved := src.addCards(0, 1, nil)[0]
	c, l := newLoadedController(t, src, manager, 0)
	src.moveGate = make(chan struct{})
	src.moveErr = errors.New("network error")

	require.Equal(t, Started, c.OnDragEnd(context.Background(), moved.ID, ptr(src.stageID(1))))
	assert.Equal(t, []uuid.UUID{src.stageID(1)}, columnsContaining(c.View(), moved.ID))

	close(src.moveGate)
	c.Wait()

	assert.Equal(t, []uuid.UUID{src.stageID(0)}, columnsContaining(c.View(), moved.ID))
	assert.Equal(t, Idle, c.State(moved.ID))

	notices := l.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeMoveFailed, notices[0].Kind)
	assert.Equal(t, MessageMoveFailed, notices[0].Message)
	assert.Equal(t, moved.ID, notices[0].OpportunityID)

	fetches, _, _ := src.counts()
	assert.Equal(t, 1, fetches, "failure does not refetch")
}

func TestController_SecondDragWhileMovingIsIgnored(t *testing.T) {
	src := newFakeSource(3)
	moved := src.addCards(0, 1, nil)[0]
	c, _ := newLoadedController(t, src, manager, 0)
	src.moveGate = make(chan struct{})
	src.moveStarted = make(chan struct{}, 1)

	require.Equal(t, Started, c.OnDragEnd(context.Background(), moved.ID, ptr(src.stageID(1))))
	<-src.moveStarted
	assert.Equal(t, Ignored, c.OnDragEnd(context.Background(), moved.ID, ptr(src.stageID(2))))

	_, _, moves := src.counts()
	assert.Equal(t, 1, moves)

	close(src.moveGate)
	c.Wait()
	assert.Equal(t, []uuid.UUID{src.stageID(1)}, columnsContaining(c.View(), moved.ID))
}

func TestController_IndependentMovesDoNotInterfere(t *testing.T) {
	src := newFakeSource(3)
	cards := src.addCards(0, 2, nil)
	c, _ := newLoadedController(t, src, manager, 0)
	src.moveGate = make(chan struct{})

	require.Equal(t, Started, c.OnDragEnd(context.Background(), cards[0].ID, ptr(src.stageID(1))))
	require.Equal(t, Started, c.OnDragEnd(context.Background(), cards[1].ID, ptr(src.stageID(2))))

	view := c.View()
	assert.Equal(t, []uuid.UUID{src.stageID(1)}, columnsContaining(view, cards[0].ID))
	assert.Equal(t, []uuid.UUID{src.stageID(2)}, columnsContaining(view, cards[1].ID))

	close(src.moveGate)
	c.Wait()

	view = c.View()
	assert.Equal(t, []uuid.UUID{src.stageID(1)}, columnsContaining(view, cards[0].ID))
	assert.Equal(t, []uuid.UUID{src.stageID(2)}, columnsContaining(view, cards[1].ID))
}

func TestController_DragEndNoOps(t *testing.T) {
	src := newFakeSource(2)
	card := src.addCards(0, 1, nil)[0]
	c, l := newLoadedController(t, src, manager, 0)
	before := l.ViewCount()

	tests := []struct {
		name   string
		id     uuid.UUID
		target *uuid.UUID
		want   Outcome
	}{
		{name: "no target", id: card.ID, target: nil, want: Ignored},
		{name: "unknown target", id: card.ID, target: ptr(uuid.New()), want: Ignored},
		{name: "unknown card", id: uuid.New(), target: ptr(src.stageID(1)), want: Ignored},
		{name: "same stage", id: card.ID, target: ptr(src.stageID(0)), want: SameStage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.OnDragEnd(context.Background(), tt.id, tt.target))
		})
	}

	_, _, moves := src.counts()
	assert.Zero(t, moves)
	assert.Equal(t, before, l.ViewCount())
	assert.Equal(t, Idle, c.State(card.ID))
}

func TestController_DeniedMoveForNonOwner(t *testing.T) {
	src := newFakeSource(2)
	rep := authz.Principal{UserID: uuid.New(), Role: authz.RoleSalesRep}
	other := uuid.New()
	foreign := src.addCards(0, 1, &other)[0]
	own := src.addCards(0, 1, &rep.UserID)[0]
	c, l := newLoadedController(t, src, rep, 0)

	assert.False(t, c.CanDrag(foreign.ID))
	assert.True(t, c.CanDrag(own.ID))

	view := c.View()
	for _, card := range view.Columns[0].Cards {
		assert.Equal(t, card.ID == own.ID, card.Draggable)
	}

	assert.Equal(t, Denied, c.OnDragEnd(context.Background(), foreign.ID, ptr(src.stageID(1))))
	assert.Equal(t, []uuid.UUID{src.stageID(0)}, columnsContaining(c.View(), foreign.ID))

	notices := l.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeDenied, notices[0].Kind)
	assert.Equal(t, MessageMoveDenied, notices[0].Message)

	_, _, moves := src.counts()
	assert.Zero(t, moves)
}

func TestController_ViewerCannotDrag(t *testing.T) {
	src := newFakeSource(2)
	card := src.addCards(0, 1, nil)[0]
	c, _ := newLoadedController(t, src, authz.Principal{UserID: uuid.New(), Role: authz.RoleViewer}, 0)

	assert.False(t, c.CanDrag(card.ID))
	assert.Equal(t, Denied, c.OnDragEnd(context.Background(), card.ID, ptr(src.stageID(1))))
}

func TestController_SettlementAfterCloseIsIgnored(t *testing.T) {
	src := newFakeSource(2)
	card := src.addCards(0, 1, nil)[0]
	c, l := newLoadedController(t, src, manager, 0)
	src.moveGate = make(chan struct{})
	src.moveErr = errors.New("late failure")

	require.Equal(t, Started, c.OnDragEnd(context.Background(), card.ID, ptr(src.stageID(1))))
	views := l.ViewCount()
	c.Close()

	close(src.moveGate)
	c.Wait()

	assert.Empty(t, l.Notices())
	assert.Equal(t, views, l.ViewCount())
	assert.Equal(t, Ignored, c.OnDragEnd(context.Background(), card.ID, ptr(src.stageID(0))))
}

func TestController_StaleSettlementTokenIsIgnored(t *testing.T) {
	src := newFakeSource(2)
	card := src.addCards(0, 1, nil)[0]
	c, l := newLoadedController(t, src, manager, 0)
	src.moveGate = make(chan struct{})

	require.Equal(t, Started, c.OnDragEnd(context.Background(), card.ID, ptr(src.stageID(1))))
	c.OnMoveSettled(context.Background(), card.ID, 999, MoveResult{Err: errors.New("stale")})
	assert.Equal(t, Moving, c.State(card.ID))
	assert.Empty(t, l.Notices())

	close(src.moveGate)
	c.Wait()
	assert.Equal(t, Idle, c.State(card.ID))
}

func TestController_MoveSequenceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("after settling, every card renders once in its server stage", prop.ForAll(
		func(cardCount int, targets []uint8, failing bool) bool {
			src := newFakeSource(4)
			cards := src.addCards(0, cardCount, nil)
			if failing {
				src.moveErr = errors.New("rejected")
			}
			l := &recordingListener{}
			c := NewController(src, src.pipelineID, manager, l, 50, zap.NewNop())
			if err := c.Load(context.Background()); err != nil {
				return false
			}

			started := 0
			for i, target := range targets {
				if i >= len(cards) {
					break
				}
				if c.OnDragEnd(context.Background(), cards[i].ID, ptr(src.stageID(int(target)%4))) == Started {
					started++
				}
			}
			c.Wait()

			view := c.View()
			for _, card := range cards {
				stages := columnsContaining(view, card.ID)
				if len(stages) != 1 || stages[0] != src.stageOf(card.ID) {
					return false
				}
				if c.State(card.ID) != Idle {
					return false
				}
			}
			if failing {
				return len(l.Notices()) == started
			}
			return len(l.Notices()) == 0
		},
		gen.IntRange(1, 10),
		gen.SliceOf(gen.UInt8()),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestController_ReloadKeepsCardsMovingFromLaterPages(t *testing.T) {
	src := newFakeSource(2)
	cards := src.addCards(0, 30, nil)
	other := src.addCards(1, 1, nil)[0]
	c, _ := newLoadedController(t, src, manager, 25)
	require.NoError(t, c.LoadMore(context.Background(), src.stageID(0)))

	last := cards[29]
	src.moveGate = make(chan struct{})
	require.Equal(t, Started, c.OnDragEnd(context.Background(), last.ID, ptr(src.stageID(1))))
	require.Equal(t, []uuid.UUID{src.stageID(1)}, columnsContaining(c.View(), last.ID))

	require.NoError(t, c.Load(context.Background()))

	view := c.View()
	assert.Equal(t, []uuid.UUID{src.stageID(1)}, columnsContaining(view, last.ID))
	assert.Equal(t, Moving, c.State(last.ID))
	assert.Len(t, view.Columns[0].Cards, 25)
	assert.Equal(t, []uuid.UUID{src.stageID(1)}, columnsContaining(view, other.ID))

	// a failed move reverts the carried card to its origin
	src.moveErr = errors.New("connection reset")
	close(src.moveGate)
	c.Wait()

	assert.Equal(t, []uuid.UUID{src.stageID(0)}, columnsContaining(c.View(), last.ID))
	assert.Equal(t, Idle, c.State(last.ID))
}

func TestController_ReloadKeepsInFlightCardOnce(t *testing.T) {
	src := newFakeSource(2)
	moved := src.addCards(0, 3, nil)[1]
	c, _ := newLoadedController(t, src, manager, 25)

	src.moveGate = make(chan struct{})
	require.Equal(t, Started, c.OnDragEnd(context.Background(), moved.ID, ptr(src.stageID(1))))
	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, []uuid.UUID{src.stageID(1)}, columnsContaining(c.View(), moved.ID))

	close(src.moveGate)
	c.Wait()
	assert.Equal(t, []uuid.UUID{src.stageID(1)}, columnsContaining(c.View(), moved.ID))
	assert.Equal(t, Idle, c.State(moved.ID))
}
