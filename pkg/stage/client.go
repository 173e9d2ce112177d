package stage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"go.uber.org/zap"
)

const (
	PositionPath = "/api/v2/instrument/state/stage/position"
	MovePath     = "/api/v2/actions/stage/move"

	DefaultStep = 200
)

type Axis uint8

const (
	X Axis = iota
	Y
	Z
)

var Axes = []Axis{X, Y, Z}

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	default:
		return "?"
	}
}

func ParseAxis(s string) (Axis, error) {
	for _, a := range Axes {
		if strings.EqualFold(s, a.String()) {
			return a, nil
		}
	}
	return X, errors.Errorf("unknown axis %q", s)
}

type Position struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
	Z int64 `json:"z"`
}

func (p Position) Get(a Axis) int64 {
	switch a {
	case Y:
		return p.Y
	case Z:
		return p.Z
	default:
		return p.X
	}
}

// Add returns p moved by delta along a.
func (p Position) Add(a Axis, delta int64) Position {
	switch a {
	case X:
		p.X += delta
	case Y:
		p.Y += delta
	case Z:
		p.Z += delta
	}
	return p
}

type MoveRequest struct {
	X        int64 `json:"x"`
	Y        int64 `json:"y"`
	Z        int64 `json:"z"`
	Absolute bool  `json:"absolute"`
}

type MoveResponse struct {
	Input  MoveRequest `json:"input"`
	Status string      `json:"status"`
}

type Option func(*Client)

func WithStep(step int64) Option {
	return func(c *Client) {
		c.step = step
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.cli.SetTimeout(d)
	}
}

func WithDebug() Option {
	return func(c *Client) {
		c.cli.SetDebug(true)
	}
}

// New returns a client for the OpenFlexure server at baseURL.
func New(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		cli: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(5*time.Second).
			SetHeader("Content-Type", "application/json").
			SetLogger(logger.Sugar()),
		step: DefaultStep,
		log:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Client struct {
	cli  *resty.Client
	step int64
	log  *zap.Logger
}

func (c *Client) StepSize() int64 {
	return c.step
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.cli.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", xid.New().String())
}

func (c *Client) Position(ctx context.Context) (Position, error) {
	var pos Position
	resp, err := c.request(ctx).SetResult(&pos).Get(PositionPath)
	if err != nil {
		return pos, fmt.Errorf("get position failed: %w", err)
	}
	if resp.IsError() {
		return pos, errors.Errorf("get position failed: %s", resp.Status())
	}
	return pos, nil
}

// Move shifts one axis by delta steps, relative to wherever the stage is.
func (c *Client) Move(ctx context.Context, axis Axis, delta int64) (*MoveResponse, error) {
	req := MoveRequest{}.add(axis, delta)
	return c.move(ctx, req)
}

// MoveTo sends the stage to an absolute position.
func (c *Client) MoveTo(ctx context.Context, pos Position) (*MoveResponse, error) {
	return c.move(ctx, MoveRequest{X: pos.X, Y: pos.Y, Z: pos.Z, Absolute: true})
}

// Step moves one configured step along axis, forward when dir is positive.
func (c *Client) Step(ctx context.Context, axis Axis, dir int) (*MoveResponse, error) {
	delta := c.step
	if dir < 0 {
		delta = -delta
	}
	return c.Move(ctx, axis, delta)
}

func (c *Client) move(ctx context.Context, req MoveRequest) (*MoveResponse, error) {
	var out MoveResponse
	resp, err := c.request(ctx).SetBody(req).SetResult(&out).Post(MovePath)
	if err != nil {
		return nil, fmt.Errorf("move stage failed: %w", err)
	}
	if resp.IsError() {
		return nil, errors.Errorf("move stage failed: %s", resp.Status())
	}

	c.log.With(
		zap.Int64("x", req.X),
		zap.Int64("y", req.Y),
		zap.Int64("z", req.Z),
		zap.Bool("absolute", req.Absolute),
		zap.String("status", out.Status),
	).Debug("stage-move")

	return &out, nil
}

func (r MoveRequest) add(a Axis, delta int64) MoveRequest {
	switch a {
	case X:
		r.X += delta
	case Y:
		r.Y += delta
	case Z:
		r.Z += delta
	}
	return r
}
