// Package client is a typed TrollBox client used by the CLI and the end-to-end tests.
package client

import (
	"context"
	goerrors "errors"
	"io"

	"trollbox/domain"
	pb "trollbox/proto/trollbox"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client sends messages under a fixed alias and reads the message stream.
type Client struct {
	conn  *grpc.ClientConn
	rpc   pb.TrollBoxClient
	alias string
}

// Dial opens a plaintext connection to address.
func Dial(address, alias string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, err
	}
	c := New(conn, alias)
	c.conn = conn
	return c, nil
}

// New wraps an existing connection. Close does not close it.
func New(cc grpc.ClientConnInterface, alias string) *Client {
	return &Client{rpc: pb.NewTrollBoxClient(cc), alias: alias}
}

func (c *Client) Alias() string {
	return c.alias
}

// Send submits text. A rejected message returns the joined rule errors, which
// can be matched with errors.Is against the validation errors.
func (c *Client) Send(ctx context.Context, text string) error {
	resp, err := c.rpc.SendMessage(ctx, &pb.SendMessageRequest{Alias: c.alias, Message: text})
	if err != nil {
		return pb.UnknownError{Detail: err.Error()}
	}
	return goerrors.Join(pb.ToDomainErrors(resp.Errors)...)
}

// Stream calls fn for every message the server pushes, history first.
// It returns nil when ctx is cancelled or the server ends the stream.
func (c *Client) Stream(ctx context.Context, fn func(domain.Message) error) error {
	stream, err := c.rpc.Messages(ctx, &pb.StreamMessagesRequest{})
	if err != nil {
		return err
	}
	for {
		msg, err := stream.Recv()
		if err != nil {
			if goerrors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		m, err := pb.ToDomainMessage(msg)
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
