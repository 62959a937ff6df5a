// Package changefeed publishes tick-observable events — committed version
// bumps (spec §4.1 Subscribe) and Phase F contacts (informational only,
// spec §4.5) — to the external change feed. Adapted from the teacher's
// modules/physics-engine-template/publish package: same Publisher shape,
// generalized from a raw-bytes fire-and-forget publisher to a typed event
// feed for this domain.
package changefeed

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"

	"github.com/azrael-sim/azrael/internal/body"
	"github.com/azrael-sim/azrael/internal/wireproto"
)

var jsonc = jsoniter.ConfigCompatibleWithStandardLibrary

// Subject is the NATS subject contact/version events are published to.
const Subject = "azrael.changefeed"

// VersionBump is published for each body committed by the orchestrator's
// Phase F physics merge; command (Phase A) and sleep bookkeeping (Phase G)
// commits are not published here.
type VersionBump struct {
	BodyID  body.ID `json:"bodyId"`
	Version uint64  `json:"version"`
	Removed bool    `json:"removed"`
}

// ContactEvent is published for every contact generated in a tick.
type ContactEvent struct {
	Tick     uint64                 `json:"tick"`
	Contacts []wireproto.ContactPair `json:"contacts"`
}

// Publisher is the contract the orchestrator depends on, unchanged in
// shape from the teacher's publish.Publisher (Publish(ctx, subject,
// payload) error; Close() error) but exposed through typed helper
// methods so callers don't hand-marshal events themselves.
type Publisher interface {
	PublishVersionBump(ctx context.Context, ev VersionBump) error
	PublishContacts(ctx context.Context, ev ContactEvent) error
	Close() error
}

type natsPublisher struct {
	nc *nats.Conn
}

// Connect dials NATS exactly as modules/physics-engine-template/publish's
// NewNATSPublisher does, defaulting to nats.DefaultURL when url is empty.
func Connect(url string) (Publisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("changefeed: connect nats %s: %w", url, err)
	}
	return &natsPublisher{nc: nc}, nil
}

func (p *natsPublisher) PublishVersionBump(_ context.Context, ev VersionBump) error {
	data, err := jsonc.Marshal(ev)
	if err != nil {
		return fmt.Errorf("changefeed: marshal version bump: %w", err)
	}
	return p.nc.Publish(Subject+".version", data)
}

func (p *natsPublisher) PublishContacts(_ context.Context, ev ContactEvent) error {
	if len(ev.Contacts) == 0 {
		return nil
	}
	data, err := jsonc.Marshal(ev)
	if err != nil {
		return fmt.Errorf("changefeed: marshal contacts: %w", err)
	}
	return p.nc.Publish(Subject+".contacts", data)
}

func (p *natsPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

// Noop discards every event; used when no change-feed endpoint is
// configured, so the orchestrator never needs a nil check.
type Noop struct{}

func (Noop) PublishVersionBump(context.Context, VersionBump) error { return nil }
func (Noop) PublishContacts(context.Context, ContactEvent) error   { return nil }
func (Noop) Close() error                                         { return nil }
