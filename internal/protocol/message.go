// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of datatracks.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/railwire/datatracks/pkg/value"
)

// Kind tags a Message's wire variant, mirroring pkg/value's own tag-
// byte-then-body codec shape (§4.1's canonical encoding).
type Kind uint8

const (
	KindRegisterRequest Kind = iota
	KindRegisterResponse
	KindBindRequest
	KindBindResponse
	KindGetPlansRequest
	KindGetPlansResponse
	KindCreatePlanRequest
	KindCreatePlanResponse
	KindDeletePlanRequest
	KindDeletePlanResponse
	KindStartPlanRequest
	KindStartPlanResponse
	KindStopPlanRequest
	KindStopPlanResponse
	KindTrain
	KindDisconnect
)

// Message is implemented by every wire message kind.
type Message interface {
	Kind() Kind
}

// StatusKind distinguishes a successful response from a failed one.
type StatusKind uint8

const (
	StatusOk StatusKind = iota
	StatusError
)

// Status is carried by every response message (§4.10: "every response
// carries a Status").
type Status struct {
	Kind StatusKind
	Code uint32
	Msg  string
}

// Ok is the zero-value, successful Status.
func Ok() Status { return Status{Kind: StatusOk} }

// Err builds a failed Status carrying code and msg.
func Err(code uint32, msg string) Status { return Status{Kind: StatusError, Code: code, Msg: msg} }

type RegisterRequest struct{ Token string }
type RegisterResponse struct {
	Status       Status
	ConnectionID string
	Token        string
}
type BindRequest struct{ StopID int }
type BindResponse struct{ Status Status }
type GetPlansRequest struct{}
type GetPlansResponse struct {
	Status Status
	Plans  []string
}
type CreatePlanRequest struct {
	Name string
	Text string
}
type CreatePlanResponse struct {
	Status Status
	Name   string
}
type DeletePlanRequest struct{ Name string }
type DeletePlanResponse struct{ Status Status }
type StartPlanRequest struct{ Name string }
type StartPlanResponse struct{ Status Status }
type StopPlanRequest struct{ Name string }
type StopPlanResponse struct{ Status Status }

// Train carries one value.Train addressed to/from a bound stop.
type Train struct {
	StopID int
	Train  *value.Train
}

type Disconnect struct{}

func (RegisterRequest) Kind() Kind    { return KindRegisterRequest }
func (RegisterResponse) Kind() Kind   { return KindRegisterResponse }
func (BindRequest) Kind() Kind        { return KindBindRequest }
func (BindResponse) Kind() Kind       { return KindBindResponse }
func (GetPlansRequest) Kind() Kind    { return KindGetPlansRequest }
func (GetPlansResponse) Kind() Kind   { return KindGetPlansResponse }
func (CreatePlanRequest) Kind() Kind  { return KindCreatePlanRequest }
func (CreatePlanResponse) Kind() Kind { return KindCreatePlanResponse }
func (DeletePlanRequest) Kind() Kind  { return KindDeletePlanRequest }
func (DeletePlanResponse) Kind() Kind { return KindDeletePlanResponse }
func (StartPlanRequest) Kind() Kind   { return KindStartPlanRequest }
func (StartPlanResponse) Kind() Kind  { return KindStartPlanResponse }
func (StopPlanRequest) Kind() Kind    { return KindStopPlanRequest }
func (StopPlanResponse) Kind() Kind   { return KindStopPlanResponse }
func (Train) Kind() Kind              { return KindTrain }
func (Disconnect) Kind() Kind         { return KindDisconnect }

// Encode writes msg's tag byte followed by its type-specific body.
func Encode(w io.Writer, msg Message) error {
	if err := writeByte(w, byte(msg.Kind())); err != nil {
		return err
	}
	switch m := msg.(type) {
	case RegisterRequest:
		return writeString(w, m.Token)
	case RegisterResponse:
		if err := writeStatus(w, m.Status); err != nil {
			return err
		}
		if err := writeString(w, m.ConnectionID); err != nil {
			return err
		}
		return writeString(w, m.Token)
	case BindRequest:
		return writeUint32(w, uint32(m.StopID))
	case BindResponse:
		return writeStatus(w, m.Status)
	case GetPlansRequest:
		return nil
	case GetPlansResponse:
		if err := writeStatus(w, m.Status); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(len(m.Plans))); err != nil {
			return err
		}
		for _, name := range m.Plans {
			if err := writeString(w, name); err != nil {
				return err
			}
		}
		return nil
	case CreatePlanRequest:
		if err := writeString(w, m.Name); err != nil {
			return err
		}
		return writeString(w, m.Text)
	case CreatePlanResponse:
		if err := writeStatus(w, m.Status); err != nil {
			return err
		}
		return writeString(w, m.Name)
	case DeletePlanRequest:
		return writeString(w, m.Name)
	case DeletePlanResponse:
		return writeStatus(w, m.Status)
	case StartPlanRequest:
		return writeString(w, m.Name)
	case StartPlanResponse:
		return writeStatus(w, m.Status)
	case StopPlanRequest:
		return writeString(w, m.Name)
	case StopPlanResponse:
		return writeStatus(w, m.Status)
	case Train:
		if err := writeUint32(w, uint32(m.StopID)); err != nil {
			return err
		}
		return encodeTrain(w, m.Train)
	case Disconnect:
		return nil
	default:
		return fmt.Errorf("protocol: encode: unknown message type %T", msg)
	}
}

// Decode reads one tag byte and dispatches to the matching message
// body decoder.
func Decode(r io.Reader) (Message, error) {
	tag, err := readByte(r)
	if err != nil {
		return nil, err
	}
	switch Kind(tag) {
	case KindRegisterRequest:
		token, err := readString(r)
		if err != nil {
			return nil, err
		}
		return RegisterRequest{Token: token}, nil
	case KindRegisterResponse:
		status, err := readStatus(r)
		if err != nil {
			return nil, err
		}
		connID, err := readString(r)
		if err != nil {
			return nil, err
		}
		token, err := readString(r)
		if err != nil {
			return nil, err
		}
		return RegisterResponse{Status: status, ConnectionID: connID, Token: token}, nil
	case KindBindRequest:
		id, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		return BindRequest{StopID: int(id)}, nil
	case KindBindResponse:
		status, err := readStatus(r)
		if err != nil {
			return nil, err
		}
		return BindResponse{Status: status}, nil
	case KindGetPlansRequest:
		return GetPlansRequest{}, nil
	case KindGetPlansResponse:
		status, err := readStatus(r)
		if err != nil {
			return nil, err
		}
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		plans := make([]string, n)
		for i := range plans {
			plans[i], err = readString(r)
			if err != nil {
				return nil, err
			}
		}
		return GetPlansResponse{Status: status, Plans: plans}, nil
	case KindCreatePlanRequest:
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		text, err := readString(r)
		if err != nil {
			return nil, err
		}
		return CreatePlanRequest{Name: name, Text: text}, nil
	case KindCreatePlanResponse:
		status, err := readStatus(r)
		if err != nil {
			return nil, err
		}
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		return CreatePlanResponse{Status: status, Name: name}, nil
	case KindDeletePlanRequest:
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		return DeletePlanRequest{Name: name}, nil
	case KindDeletePlanResponse:
		status, err := readStatus(r)
		if err != nil {
			return nil, err
		}
		return DeletePlanResponse{Status: status}, nil
	case KindStartPlanRequest:
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		return StartPlanRequest{Name: name}, nil
	case KindStartPlanResponse:
		status, err := readStatus(r)
		if err != nil {
			return nil, err
		}
		return StartPlanResponse{Status: status}, nil
	case KindStopPlanRequest:
		name, err := readString(r)
		if err != nil {
			return nil, err
		}
		return StopPlanRequest{Name: name}, nil
	case KindStopPlanResponse:
		status, err := readStatus(r)
		if err != nil {
			return nil, err
		}
		return StopPlanResponse{Status: status}, nil
	case KindTrain:
		id, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		tr, err := decodeTrain(r)
		if err != nil {
			return nil, err
		}
		return Train{StopID: int(id), Train: tr}, nil
	case KindDisconnect:
		return Disconnect{}, nil
	default:
		return nil, fmt.Errorf("protocol: decode: unknown tag byte %d", tag)
	}
}

func writeStatus(w io.Writer, s Status) error {
	if err := writeByte(w, byte(s.Kind)); err != nil {
		return err
	}
	if err := writeUint32(w, s.Code); err != nil {
		return err
	}
	return writeString(w, s.Msg)
}

func readStatus(r io.Reader) (Status, error) {
	kind, err := readByte(r)
	if err != nil {
		return Status{}, err
	}
	code, err := readUint32(r)
	if err != nil {
		return Status{}, err
	}
	msg, err := readString(r)
	if err != nil {
		return Status{}, err
	}
	return Status{Kind: StatusKind(kind), Code: code, Msg: msg}, nil
}

// encodeTrain and decodeTrain delegate to pkg/value's shared Train
// codec (also used by internal/sink), so the protocol
// wire form and the at-rest form never drift apart.
func encodeTrain(w io.Writer, tr *value.Train) error { return value.EncodeTrain(w, tr) }

func decodeTrain(r io.Reader) (*value.Train, error) { return value.DecodeTrain(r) }

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeBytes(w io.Writer, b []byte) error {
	if err := writeUint32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r io.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeString(w io.Writer, s string) error {
	return writeBytes(w, []byte(s))
}

func readString(r io.Reader) (string, error) {
	b, err := readBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeToBytes is a convenience wrapper Encoding msg into a standalone
// []byte frame payload, for callers assembling a whole frame at once.
func EncodeToBytes(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
