package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/karishmathakrar/GreenGridPR/internal/replay"
)

// Client talks to a remote replay buffer.
type Client struct {
	conn *grpc.ClientConn
	own  bool
}

// Dial connects to a replay server at addr. Close releases the connection.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to replay server %s: %w", addr, err)
	}
	return &Client{conn: conn, own: true}, nil
}

// NewClient wraps an existing connection. Close leaves conn open.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

func (c *Client) invoke(ctx context.Context, method string, req, resp message) error {
	if err := c.conn.Invoke(ctx, method, req, resp, grpc.ForceCodec(Codec{})); err != nil {
		return fromStatus(err)
	}
	return nil
}

// Add stores transitions with explicit priorities. A nil priorities slice
// stores every transition at the default priority. Returns the new length.
func (c *Client) Add(ctx context.Context, transitions []replay.Transition, priorities []float64) (int, error) {
	req := &AddRequest{
		Transitions: toWireTransitions(transitions),
		Priorities:  priorities,
	}
	resp := &AddResponse{}
	if err := c.invoke(ctx, addMethod, req, resp); err != nil {
		return 0, err
	}
	return int(resp.Len), nil
}

// Sample draws a prioritized batch.
func (c *Client) Sample(ctx context.Context, batchSize int, beta float64) (replay.Batch, error) {
	req := &SampleRequest{BatchSize: int64(batchSize), Beta: beta}
	resp := &SampleResponse{}
	if err := c.invoke(ctx, sampleMethod, req, resp); err != nil {
		return replay.Batch{}, err
	}
	return replay.Batch{
		Transitions: fromWireTransitions(resp.Transitions),
		Indices:     resp.Indices,
		Weights:     resp.Weights,
	}, nil
}

// UpdatePriorities overwrites the priorities at the given positions.
func (c *Client) UpdatePriorities(ctx context.Context, indices []int, priorities []float64) error {
	req := &UpdatePrioritiesRequest{Indices: indices, Priorities: priorities}
	return c.invoke(ctx, updatePrioritiesMethod, req, &UpdatePrioritiesResponse{})
}

// Stats fetches buffer statistics.
func (c *Client) Stats(ctx context.Context) (replay.Stats, error) {
	resp := &StatsResponse{}
	if err := c.invoke(ctx, statsMethod, &StatsRequest{}, resp); err != nil {
		return replay.Stats{}, err
	}
	return replay.Stats{
		Len:           int(resp.Len),
		Capacity:      int(resp.Capacity),
		Alpha:         resp.Alpha,
		TotalPriority: resp.TotalPriority,
		MinPriority:   resp.MinPriority,
		MaxPriority:   resp.MaxPriority,
		Full:          resp.Full,
	}, nil
}

// Close releases the connection when the client dialed it.
func (c *Client) Close() error {
	if !c.own {
		return nil
	}
	return c.conn.Close()
}
