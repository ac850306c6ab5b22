package adcscope

// Contains the ClientUpdater object, which publishes JSON-encoded messages
// giving the latest capture data and state.

import (
	"encoding/json"
	"fmt"
	"time"

	zmq "github.com/pebbe/zmq4"
	"github.com/usnistgov/adcscope/internal/unboundedchan"
)

// ClientUpdate carries the messages to be published on the status port.
type ClientUpdate struct {
	tag   string
	state interface{}
}

// encode returns the two message frames: the tag and the JSON-encoded state.
func (u ClientUpdate) encode() (string, []byte, error) {
	msg, err := json.Marshal(u.state)
	if err != nil {
		return "", nil, fmt.Errorf("encoding %s update: %w", u.tag, err)
	}
	return u.tag, msg, nil
}

// Heartbeat is the state sent with each ALIVE message.
type Heartbeat struct {
	Uptime  float64 // seconds since the program started
	Pending int     // updates queued behind this one
}

// ClientUpdater queues updates without blocking the sender, and publishes
// them in order on a ZMQ PUB socket when Run is active.
type ClientUpdater struct {
	queue *unboundedchan.UnboundedChannel[ClientUpdate]
}

// NewClientUpdater creates a ClientUpdater with an empty queue.
func NewClientUpdater() *ClientUpdater {
	return &ClientUpdater{queue: unboundedchan.NewUnboundedChannel[ClientUpdate]()}
}

// Send queues one update for publication.
func (cu *ClientUpdater) Send(tag string, state interface{}) {
	cu.queue.In() <- ClientUpdate{tag: tag, state: state}
}

// Pending returns the number of updates waiting to be published.
func (cu *ClientUpdater) Pending() int {
	return cu.queue.Len()
}

// Run publishes queued updates on a PUB socket bound to portstatus until
// abort is closed, sending an ALIVE heartbeat every 2 seconds.
func (cu *ClientUpdater) Run(portstatus int, abort <-chan struct{}) error {
	hostname := fmt.Sprintf("tcp://*:%d", portstatus)
	pubSocket, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		return err
	}
	defer pubSocket.Close()
	if err = pubSocket.Bind(hostname); err != nil {
		return fmt.Errorf("could not bind client updater port %d: %w", portstatus, err)
	}

	heartbeat := time.NewTicker(2 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-abort:
			return nil

		case <-heartbeat.C:
			hb := Heartbeat{Uptime: time.Since(StartTime).Seconds(), Pending: cu.Pending()}
			cu.publish(pubSocket, ClientUpdate{tag: "ALIVE", state: hb})

		case update, ok := <-cu.queue.Out():
			if !ok {
				return nil
			}
			cu.publish(pubSocket, update)
			if update.tag != "TIMEDOMAIN" {
				UpdateLogger.Printf("SEND %s\n", update.tag)
			}
		}
	}
}

func (cu *ClientUpdater) publish(pubSocket *zmq.Socket, update ClientUpdate) {
	tag, msg, err := update.encode()
	if err != nil {
		ProblemLogger.Println(err)
		return
	}
	if _, err := pubSocket.SendMessage(tag, msg); err != nil {
		ProblemLogger.Printf("publishing %s update: %v\n", tag, err)
	}
}
