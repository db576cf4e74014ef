package hub

import (
	"context"

	"github.com/frontdesk/checkin-backend/internal/lane"
)

type HubMsg interface{ isHubMsg() }

type GetLane struct {
	LaneID string
	Reply  chan *lane.Lane
}

// EnsureLane returns the lane actor for a physical lane, creating it on
// first touch. Lanes are long-lived; sessions on them come and go.
type EnsureLane struct {
	LaneID string
	Reply  chan *lane.Lane
}

type RemoveLane struct {
	LaneID string
}

// BroadcastAll fans one push out to every lane's subscribers. Used for
// cross-lane events: waitlist and inventory changes concern every station.
type BroadcastAll struct {
	Push lane.Push
}

type ShutdownHub struct{}

func (GetLane) isHubMsg()      {}
func (EnsureLane) isHubMsg()   {}
func (RemoveLane) isHubMsg()   {}
func (BroadcastAll) isHubMsg() {}
func (ShutdownHub) isHubMsg()  {}

type Hub struct {
	inbox  chan HubMsg
	lanes  map[string]*lane.Lane
	deps   lane.Deps
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, deps lane.Deps) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		lanes:  make(map[string]*lane.Lane),
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Ensure is the blocking convenience wrapper the HTTP and WS layers use.
func (h *Hub) Ensure(laneID string) *lane.Lane {
	reply := make(chan *lane.Lane, 1)
	h.inbox <- EnsureLane{LaneID: laneID, Reply: reply}
	return <-reply
}

// Publish fans a push out to every lane's subscribers.
func (h *Hub) Publish(push lane.Push) {
	h.inbox <- BroadcastAll{Push: push}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case GetLane:
				msg.Reply <- h.lanes[msg.LaneID] // may be nil

			case EnsureLane:
				if ln := h.lanes[msg.LaneID]; ln != nil {
					msg.Reply <- ln
					break
				}
				ln := lane.New(h.ctx, msg.LaneID, h.deps)
				h.lanes[msg.LaneID] = ln
				msg.Reply <- ln

			case RemoveLane:
				if ln := h.lanes[msg.LaneID]; ln != nil {
					ln.Inbox() <- lane.Shutdown{}
					delete(h.lanes, msg.LaneID)
				}

			case BroadcastAll:
				for _, ln := range h.lanes {
					ln.Inbox() <- lane.Publish{Push: msg.Push}
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for id, ln := range h.lanes {
		ln.Inbox() <- lane.Shutdown{}
		delete(h.lanes, id)
	}
	h.cancel()
}
