package ami

import (
	"context"
	"fmt"
	"strings"
)

// Typed records per manager action. Required fields are validated here at
// the codec boundary; anything unrecognized lands in the Extra bag so new
// Asterisk fields survive the trip without untyped maps leaking into
// business logic.

// VoicemailUser is one VoicemailUserEntry event from VoicemailUsersList.
type VoicemailUser struct {
	Mailbox  string
	Fullname string
	Email    string
	Extra    map[string]string
}

// ParkedCall is one ParkedCall event from the ParkedCalls action.
type ParkedCall struct {
	Exten        string
	CallerIDName string
	CallerIDNum  string
	Extra        map[string]string
}

// DisplayName returns the caller name, falling back to the number.
func (p ParkedCall) DisplayName() string {
	if p.CallerIDName != "" {
		return p.CallerIDName
	}
	return p.CallerIDNum
}

// PeerEntry is one SIPPeer event from the SIPPeers listing.
type PeerEntry struct {
	Name       string
	DeviceName string
	Status     string
	Extra      map[string]string
}

// PeerDetail is the SIPShowPeer response for one peer, carrying the live
// RTP transport statistics as the opaque strings Asterisk reports them in.
type PeerDetail struct {
	Name      string
	IPAddress string
	Status    string
	RTPRxStat string
	RTPTxStat string
	Extra     map[string]string
}

// VoicemailUsers lists all voicemail users known to the manager.
func (c *Client) VoicemailUsers(ctx context.Context) ([]VoicemailUser, error) {
	events, err := c.ExecuteList(ctx, "VoicemailUsersList", nil)
	if err != nil {
		return nil, err
	}
	users := make([]VoicemailUser, 0, len(events))
	for _, ev := range events {
		if !strings.EqualFold(ev.Name, "VoicemailUserEntry") {
			continue
		}
		mailbox := ev.Fields.Get("VoiceMailbox")
		if mailbox == "" {
			return nil, fmt.Errorf("VoicemailUserEntry without VoiceMailbox: %w", ErrProtocol)
		}
		users = append(users, VoicemailUser{
			Mailbox:  mailbox,
			Fullname: ev.Fields.Get("Fullname"),
			Email:    ev.Fields.Get("Email"),
			Extra:    ev.Fields.Extra("Event", "ActionID", "VoiceMailbox", "Fullname", "Email"),
		})
	}
	return users, nil
}

// ParkedCalls lists the calls currently held in parking slots, in the
// order the manager reports them.
func (c *Client) ParkedCalls(ctx context.Context) ([]ParkedCall, error) {
	events, err := c.ExecuteList(ctx, "ParkedCalls", nil)
	if err != nil {
		return nil, err
	}
	calls := make([]ParkedCall, 0, len(events))
	for _, ev := range events {
		if !strings.EqualFold(ev.Name, "ParkedCall") {
			continue
		}
		exten := ev.Fields.Get("Exten")
		if exten == "" {
			return nil, fmt.Errorf("ParkedCall event without Exten: %w", ErrProtocol)
		}
		calls = append(calls, ParkedCall{
			Exten:        exten,
			CallerIDName: ev.Fields.Get("CallerIDName"),
			CallerIDNum:  ev.Fields.Get("CallerIDNum"),
			Extra:        ev.Fields.Extra("Event", "ActionID", "Exten", "CallerIDName", "CallerIDNum"),
		})
	}
	return calls, nil
}

// SIPPeers lists the registered SIP peers.
func (c *Client) SIPPeers(ctx context.Context) ([]PeerEntry, error) {
	events, err := c.ExecuteList(ctx, "SIPPeers", nil)
	if err != nil {
		return nil, err
	}
	peers := make([]PeerEntry, 0, len(events))
	for _, ev := range events {
		if !strings.EqualFold(ev.Name, "SIPPeer") && !strings.EqualFold(ev.Name, "PeerEntry") {
			continue
		}
		name := ev.Fields.Get("Name")
		if name == "" {
			name = ev.Fields.Get("ObjectName")
		}
		if name == "" {
			return nil, fmt.Errorf("peer event without Name: %w", ErrProtocol)
		}
		peers = append(peers, PeerEntry{
			Name:       name,
			DeviceName: ev.Fields.Get("DeviceName"),
			Status:     ev.Fields.Get("Status"),
			Extra:      ev.Fields.Extra("Event", "ActionID", "Name", "ObjectName", "DeviceName", "Status"),
		})
	}
	return peers, nil
}

// ShowPeer fetches the live session detail for one SIP peer.
func (c *Client) ShowPeer(ctx context.Context, peer string) (*PeerDetail, error) {
	resp, err := c.Execute(ctx, "SIPShowPeer", map[string]string{"Peer": peer})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("SIPShowPeer %s rejected: %s", peer, resp.Message)
	}
	return &PeerDetail{
		Name:      peer,
		IPAddress: resp.Fields.Get("IPAddress"),
		Status:    resp.Fields.Get("Status"),
		RTPRxStat: resp.Fields.Get("RTPRxStat"),
		RTPTxStat: resp.Fields.Get("RTPTxStat"),
		Extra: resp.Fields.Extra(
			"Response", "ActionID", "Message",
			"IPAddress", "Status", "RTPRxStat", "RTPTxStat",
		),
	}, nil
}
